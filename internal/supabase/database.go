package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/repository"
)

// DatabaseClient talks to the Supabase Postgres database directly.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

const orderColumns = `
	o.id, o.nombre_cliente, o.customer_phone, o.customer_address, o.lista_productos,
	o.fecha_entrega::text, o.esta_pagado, o.metodo_pago, o.monto_total, o.status, o.notas,
	o.created_by, o.assigned_to, o.assigned_at, o.created_at, o.updated_at,
	c.full_name, c.email, a.full_name, a.email`

const orderJoins = `
	FROM orders o
	LEFT JOIN profiles c ON c.id = o.created_by
	LEFT JOIN profiles a ON a.id = o.assigned_to`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o                           models.Order
		assignedTo                  uuid.NullUUID
		assignedAt                  sql.NullTime
		phone, address, notes       sql.NullString
		creatorName, creatorEmail   sql.NullString
		assigneeName, assigneeEmail sql.NullString
	)
	err := row.Scan(
		&o.ID, &o.CustomerName, &phone, &address, &o.Items,
		&o.DeliveryDate, &o.Paid, &o.PaymentMethod, &o.Total, &o.Status, &notes,
		&o.CreatedBy, &assignedTo, &assignedAt, &o.CreatedAt, &o.UpdatedAt,
		&creatorName, &creatorEmail, &assigneeName, &assigneeEmail,
	)
	if err != nil {
		return nil, err
	}

	o.CustomerPhone = nullString(phone)
	o.CustomerAddress = nullString(address)
	o.Notes = nullString(notes)
	if assignedTo.Valid {
		id := assignedTo.UUID
		o.AssignedTo = &id
	}
	if assignedAt.Valid {
		t := assignedAt.Time
		o.AssignedAt = &t
	}
	if creatorName.Valid {
		o.Creator = &models.ProfileRef{FullName: creatorName.String, Email: creatorEmail.String}
	}
	if assigneeName.Valid {
		o.Assignee = &models.ProfileRef{FullName: assigneeName.String, Email: assigneeEmail.String}
	}
	return &o, nil
}

func (d *DatabaseClient) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	var id uuid.UUID
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO orders (nombre_cliente, customer_phone, customer_address, lista_productos,
			fecha_entrega, esta_pagado, metodo_pago, monto_total, status, notas, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, order.CustomerName, order.CustomerPhone, order.CustomerAddress, order.Items,
		order.DeliveryDate, order.Paid, order.PaymentMethod, order.Total, order.Status,
		order.Notes, order.CreatedBy,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return d.GetOrder(ctx, id)
}

func (d *DatabaseClient) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := scanOrder(d.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+orderJoins+` WHERE o.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (d *DatabaseClient) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	where, args := filterSQL(filter)
	query := `SELECT ` + orderColumns + orderJoins + where
	if filter.ByAssignedAt {
		query += ` ORDER BY o.assigned_at DESC NULLS LAST`
	} else {
		query += ` ORDER BY o.created_at DESC`
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

func (d *DatabaseClient) UpdateOrderIf(ctx context.Context, id uuid.UUID, cond models.OrderCondition, patch models.OrderPatch) (*models.Order, error) {
	query, args := updateIfSQL(id, cond, patch)

	var updated uuid.UUID
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrConditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return d.GetOrder(ctx, updated)
}

func (d *DatabaseClient) RecordProgressIf(ctx context.Context, entry *models.ProgressEntry, cond models.OrderCondition, patch models.OrderPatch) (*models.Order, *models.ProgressEntry, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := updateIfSQL(entry.OrderID, cond, patch)
	var updated uuid.UUID
	err = tx.QueryRowContext(ctx, query, args...).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, repository.ErrConditionFailed
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update order: %w", err)
	}

	written := *entry
	err = tx.QueryRowContext(ctx, `
		INSERT INTO order_progress (order_id, worker_id, status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, entry.OrderID, entry.WorkerID, entry.Status, entry.Notes).Scan(&written.ID, &written.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to append progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit progress: %w", err)
	}

	order, err := d.GetOrder(ctx, updated)
	if err != nil {
		return nil, nil, err
	}
	return order, &written, nil
}

func (d *DatabaseClient) ListProgress(ctx context.Context, orderID uuid.UUID) ([]models.ProgressEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT p.id, p.order_id, p.worker_id, p.status, p.notes, p.created_at, w.full_name, w.email
		FROM order_progress p
		LEFT JOIN profiles w ON w.id = p.worker_id
		WHERE p.order_id = $1
		ORDER BY p.created_at DESC, p.seq DESC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	var entries []models.ProgressEntry
	for rows.Next() {
		var (
			e           models.ProgressEntry
			name, email sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.WorkerID, &e.Status, &e.Notes, &e.CreatedAt, &name, &email); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		if name.Valid {
			e.Worker = &models.ProfileRef{FullName: name.String, Email: email.String}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	return entries, nil
}

// updateIfSQL builds the single conditional UPDATE behind UpdateOrderIf.
// The statement returns the id only when the condition held.
func updateIfSQL(id uuid.UUID, cond models.OrderCondition, patch models.OrderPatch) (string, []interface{}) {
	args := []interface{}{id}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sets := []string{"updated_at = NOW()"}
	if patch.Status != nil {
		sets = append(sets, "status = "+arg(string(*patch.Status)))
	}
	if patch.AssignTo != nil {
		sets = append(sets, "assigned_to = "+arg(*patch.AssignTo), "assigned_at = NOW()")
	}
	if patch.ClearAssignment {
		sets = append(sets, "assigned_to = NULL", "assigned_at = NULL")
	}

	where := []string{"id = $1"}
	if len(cond.StatusIn) > 0 {
		where = append(where, "status = ANY("+arg(statusArray(cond.StatusIn))+")")
	}
	if len(cond.StatusNotIn) > 0 {
		where = append(where, "NOT (status = ANY("+arg(statusArray(cond.StatusNotIn))+"))")
	}
	if cond.AssignedTo != nil {
		where = append(where, "assigned_to = "+arg(*cond.AssignedTo))
	}
	if cond.Unassigned {
		where = append(where, "assigned_to IS NULL")
	}

	query := "UPDATE orders SET " + strings.Join(sets, ", ") +
		" WHERE " + strings.Join(where, " AND ") +
		" RETURNING id"
	return query, args
}

func filterSQL(filter models.OrderFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		where = append(where, "o.status = "+arg(string(*filter.Status)))
	}
	if filter.AssignedTo != nil {
		where = append(where, "o.assigned_to = "+arg(*filter.AssignedTo))
	}
	if filter.Unassigned {
		where = append(where, "o.assigned_to IS NULL")
	}
	if len(filter.ExcludeStatuses) > 0 {
		where = append(where, "NOT (o.status = ANY("+arg(statusArray(filter.ExcludeStatuses))+"))")
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func statusArray(statuses []models.OrderStatus) interface{} {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return pq.Array(values)
}

func (d *DatabaseClient) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var (
		p      models.Profile
		avatar sql.NullString
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, avatar_url, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &avatar, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.AvatarURL = nullString(avatar)
	return &p, nil
}

// CreateProfile inserts the profile unless one already exists for the id,
// then returns the stored row.
func (d *DatabaseClient) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, profile.ID, profile.Email, profile.FullName, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return d.GetProfile(ctx, profile.ID)
}

func (d *DatabaseClient) UpdateProfile(ctx context.Context, id uuid.UUID, patch models.ProfilePatch) (*models.Profile, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE profiles
		SET full_name = COALESCE($2, full_name),
			avatar_url = COALESCE($3, avatar_url),
			updated_at = NOW()
		WHERE id = $1
	`, id, patch.FullName, patch.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, repository.ErrNotFound
	}
	return d.GetProfile(ctx, id)
}

func (d *DatabaseClient) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, email, full_name, role, avatar_url, created_at, updated_at
		FROM profiles
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var (
			p      models.Profile
			avatar sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &avatar, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.AvatarURL = nullString(avatar)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, nil
}

func (d *DatabaseClient) GetWorkerStats(ctx context.Context, id uuid.UUID) (*models.WorkerStats, error) {
	var stats models.WorkerStats
	err := d.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('completed', 'delivered')),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			(SELECT COUNT(*) FROM order_progress WHERE worker_id = $1)
		FROM orders
		WHERE assigned_to = $1
	`, id).Scan(&stats.TotalAssigned, &stats.Completed, &stats.InProgress, &stats.TotalUpdates)
	if err != nil {
		return nil, fmt.Errorf("failed to get worker stats: %w", err)
	}
	stats.CompletionRate = repository.CompletionRate(stats.Completed, stats.TotalAssigned)
	return &stats, nil
}

// Ping reports whether the database is reachable.
func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
