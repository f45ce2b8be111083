package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"order-desk-backend/internal/models"
)

// Memory is an in-process store with the same conditional-write semantics as
// the Postgres client. It backs local development and tests.
type Memory struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*models.Order
	progress []models.ProgressEntry
	profiles map[uuid.UUID]*models.Profile
	onChange func(models.ChangeNotice)
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		orders:   make(map[uuid.UUID]*models.Order),
		profiles: make(map[uuid.UUID]*models.Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OnChange registers fn to receive a notice after every order write, the
// way the orders trigger does for the Postgres store.
func (m *Memory) OnChange(fn func(models.ChangeNotice)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *Memory) notify(typ models.ChangeType, o *models.Order) {
	if m.onChange == nil {
		return
	}
	fn := m.onChange
	notice := models.ChangeNotice{Type: typ, OrderID: o.ID, UpdatedAt: o.UpdatedAt}
	go fn(notice)
}

func (m *Memory) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *order
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := m.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Items = append(models.LineItems(nil), order.Items...)
	m.orders[stored.ID] = &stored

	m.notify(models.ChangeInsert, &stored)
	return m.joined(&stored), nil
}

func (m *Memory) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.joined(o), nil
}

func (m *Memory) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if filter.Matches(o) {
			orders = append(orders, *m.joined(o))
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if filter.ByAssignedAt {
			return timeOrZero(orders[i].AssignedAt).After(timeOrZero(orders[j].AssignedAt))
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (m *Memory) UpdateOrderIf(ctx context.Context, id uuid.UUID, cond models.OrderCondition, patch models.OrderPatch) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok || !cond.Matches(o) {
		return nil, ErrConditionFailed
	}
	patch.Apply(o, m.now())

	m.notify(models.ChangeUpdate, o)
	return m.joined(o), nil
}

func (m *Memory) RecordProgressIf(ctx context.Context, entry *models.ProgressEntry, cond models.OrderCondition, patch models.OrderPatch) (*models.Order, *models.ProgressEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[entry.OrderID]
	if !ok || !cond.Matches(o) {
		return nil, nil, ErrConditionFailed
	}

	now := m.now()
	stored := *entry
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = now
	m.progress = append(m.progress, stored)

	patch.Apply(o, now)
	m.notify(models.ChangeUpdate, o)

	if p, ok := m.profiles[stored.WorkerID]; ok {
		stored.Worker = p.Ref()
	}
	return m.joined(o), &stored, nil
}

func (m *Memory) ListProgress(ctx context.Context, orderID uuid.UUID) ([]models.ProgressEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []models.ProgressEntry
	// Newest first; insertion order breaks timestamp ties.
	for i := len(m.progress) - 1; i >= 0; i-- {
		e := m.progress[i]
		if e.OrderID != orderID {
			continue
		}
		if p, ok := m.profiles[e.WorkerID]; ok {
			e.Worker = p.Ref()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (m *Memory) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Concurrent first requests race to create; the first insert wins.
	if p, ok := m.profiles[profile.ID]; ok {
		cp := *p
		return &cp, nil
	}
	stored := *profile
	now := m.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.profiles[stored.ID] = &stored

	cp := stored
	return &cp, nil
}

func (m *Memory) UpdateProfile(ctx context.Context, id uuid.UUID, patch models.ProfilePatch) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.AvatarURL != nil {
		url := *patch.AvatarURL
		p.AvatarURL = &url
	}
	p.UpdatedAt = m.now()

	cp := *p
	return &cp, nil
}

func (m *Memory) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profiles := make([]models.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		profiles = append(profiles, *p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
	})
	return profiles, nil
}

func (m *Memory) GetWorkerStats(ctx context.Context, id uuid.UUID) (*models.WorkerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &models.WorkerStats{}
	for _, o := range m.orders {
		if o.AssignedTo == nil || *o.AssignedTo != id {
			continue
		}
		stats.TotalAssigned++
		switch o.Status {
		case models.StatusCompleted, models.StatusDelivered:
			stats.Completed++
		case models.StatusInProgress:
			stats.InProgress++
		}
	}
	for _, e := range m.progress {
		if e.WorkerID == id {
			stats.TotalUpdates++
		}
	}
	stats.CompletionRate = CompletionRate(stats.Completed, stats.TotalAssigned)
	return stats, nil
}

// joined copies o and attaches creator/assignee identities. Callers hold mu.
func (m *Memory) joined(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append(models.LineItems(nil), o.Items...)
	if p, ok := m.profiles[o.CreatedBy]; ok {
		cp.Creator = p.Ref()
	}
	if o.AssignedTo != nil {
		if p, ok := m.profiles[*o.AssignedTo]; ok {
			cp.Assignee = p.Ref()
		}
	}
	return &cp
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
