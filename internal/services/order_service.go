package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/repository"
)

var (
	minPrice = decimal.RequireFromString("0.01")
	// maxTotal is the largest value monto_total (NUMERIC(12,2)) holds.
	maxTotal = decimal.RequireFromString("9999999999.99")
)

const maxQuantity = 100000

// progressStatuses are the statuses a worker may report through a progress
// entry. Going back to pending is done by releasing the order.
var progressStatuses = []models.OrderStatus{
	models.StatusInProgress,
	models.StatusCompleted,
	models.StatusDelivered,
	models.StatusCancelled,
}

// OrderService implements the claim/progress workflow on top of the order
// store's conditional writes.
type OrderService struct {
	orders repository.Orders
}

func NewOrderService(orders repository.Orders) *OrderService {
	return &OrderService{orders: orders}
}

func (s *OrderService) CreateOrder(ctx context.Context, creatorID uuid.UUID, req models.CreateOrderRequest) (*models.Order, error) {
	items, err := validateOrder(req)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   optional(req.CustomerPhone),
		CustomerAddress: optional(req.CustomerAddress),
		Items:           items,
		DeliveryDate:    req.DeliveryDate,
		Paid:            req.Paid,
		PaymentMethod:   req.PaymentMethod,
		Total:           items.Total(),
		Status:          models.StatusPending,
		Notes:           optional(req.Notes),
		CreatedBy:       creatorID,
	}

	created, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, backend("create order", err)
	}
	return created, nil
}

func validateOrder(req models.CreateOrderRequest) (models.LineItems, error) {
	if len([]rune(strings.TrimSpace(req.CustomerName))) < 2 {
		return nil, invalid("nombre_cliente", "customer name is required")
	}
	if req.DeliveryDate == "" {
		return nil, invalid("fecha_entrega", "delivery date is required")
	}
	if _, err := time.Parse("2006-01-02", req.DeliveryDate); err != nil {
		return nil, invalid("fecha_entrega", "delivery date must be YYYY-MM-DD")
	}
	if !req.PaymentMethod.Valid() {
		return nil, invalid("metodo_pago", "unknown payment method")
	}
	if len(req.Products) == 0 {
		return nil, invalid("productos", "at least one product is required")
	}

	items := make(models.LineItems, 0, len(req.Products))
	for _, p := range req.Products {
		if strings.TrimSpace(p.Product) == "" {
			return nil, invalid("productos.producto", "product is required")
		}
		if p.Quantity < 1 {
			return nil, invalid("productos.cantidad", "quantity must be at least 1")
		}
		if p.Quantity > maxQuantity {
			return nil, invalid("productos.cantidad", "quantity must be at most 100000")
		}
		if p.Price.LessThan(minPrice) {
			return nil, invalid("productos.precio", "price must be at least 0.01")
		}
		if !p.Price.Equal(p.Price.Round(2)) {
			return nil, invalid("productos.precio", "price must have at most two decimals")
		}
		items = append(items, models.LineItem{
			Product:  strings.TrimSpace(p.Product),
			Quantity: p.Quantity,
			Price:    p.Price,
		})
	}
	if items.Total().GreaterThan(maxTotal) {
		return nil, invalid("monto_total", "order total exceeds 9999999999.99")
	}
	return items, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, backend("get order", err)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	if status != nil && !status.Valid() {
		return nil, invalid("status", "unknown status")
	}
	return s.list(ctx, models.OrderFilter{Status: status})
}

// ListAvailable returns the pending, unassigned orders workers may claim.
func (s *OrderService) ListAvailable(ctx context.Context) ([]models.Order, error) {
	pending := models.StatusPending
	return s.list(ctx, models.OrderFilter{Status: &pending, Unassigned: true})
}

func (s *OrderService) ListAssignedTo(ctx context.Context, workerID uuid.UUID) ([]models.Order, error) {
	return s.list(ctx, models.OrderFilter{
		AssignedTo:      &workerID,
		ExcludeStatuses: []models.OrderStatus{models.StatusCancelled},
		ByAssignedAt:    true,
	})
}

func (s *OrderService) list(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, backend("list orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ClaimOrder assigns a pending, unassigned order to workerID in one
// conditional write. Exactly one of several concurrent claims succeeds.
func (s *OrderService) ClaimOrder(ctx context.Context, orderID, workerID uuid.UUID) (*models.Order, error) {
	inProgress := models.StatusInProgress
	order, err := s.orders.UpdateOrderIf(ctx, orderID,
		models.OrderCondition{
			StatusIn:   []models.OrderStatus{models.StatusPending},
			Unassigned: true,
		},
		models.OrderPatch{Status: &inProgress, AssignTo: &workerID},
	)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, repository.ErrConditionFailed) {
		return nil, backend("claim order", err)
	}
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return nil, ErrAlreadyAssigned
}

// ReleaseOrder hands an in-progress order held by callerID back to the
// pending pool.
func (s *OrderService) ReleaseOrder(ctx context.Context, orderID, callerID uuid.UUID) (*models.Order, error) {
	pending := models.StatusPending
	order, err := s.orders.UpdateOrderIf(ctx, orderID,
		models.OrderCondition{
			StatusIn:   []models.OrderStatus{models.StatusInProgress},
			AssignedTo: &callerID,
		},
		models.OrderPatch{Status: &pending, ClearAssignment: true},
	)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, repository.ErrConditionFailed) {
		return nil, backend("release order", err)
	}

	current, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.AssignedTo != nil && *current.AssignedTo == callerID {
		return nil, ErrInvalidTransition
	}
	return nil, ErrNotAssignedToCaller
}

// RecordProgress appends a progress entry and moves the order to newStatus.
// The ownership check and the legal source statuses are part of the same
// atomic write as the append.
func (s *OrderService) RecordProgress(ctx context.Context, orderID, callerID uuid.UUID, newStatus models.OrderStatus, notes string) (*models.Order, *models.ProgressEntry, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, nil, invalid("notes", "notes are required")
	}
	if !isProgressStatus(newStatus) {
		return nil, nil, invalid("status", "status cannot be reported as progress")
	}

	patch := models.OrderPatch{Status: &newStatus}
	if newStatus == models.StatusCancelled {
		patch.ClearAssignment = true
	}
	entry := &models.ProgressEntry{
		OrderID:  orderID,
		WorkerID: callerID,
		Status:   newStatus,
		Notes:    notes,
	}

	order, written, err := s.orders.RecordProgressIf(ctx, entry,
		models.OrderCondition{
			StatusIn:   models.SourcesFor(newStatus),
			AssignedTo: &callerID,
		},
		patch,
	)
	if err == nil {
		return order, written, nil
	}
	if !errors.Is(err, repository.ErrConditionFailed) {
		return nil, nil, backend("record progress", err)
	}

	current, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if current.AssignedTo == nil || *current.AssignedTo != callerID {
		return nil, nil, ErrForbidden
	}
	return nil, nil, ErrInvalidTransition
}

// SetOrderStatus is the administrative override. It only refuses to leave a
// terminal status; pending and cancelled drop the assignment.
func (s *OrderService) SetOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus) (*models.Order, error) {
	if !newStatus.Valid() {
		return nil, invalid("status", "unknown status")
	}

	patch := models.OrderPatch{Status: &newStatus}
	if newStatus == models.StatusPending || newStatus == models.StatusCancelled {
		patch.ClearAssignment = true
	}

	order, err := s.orders.UpdateOrderIf(ctx, orderID,
		models.OrderCondition{StatusNotIn: models.TerminalStatuses},
		patch,
	)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, repository.ErrConditionFailed) {
		return nil, backend("set order status", err)
	}
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

func (s *OrderService) ListProgress(ctx context.Context, orderID uuid.UUID) ([]models.ProgressEntry, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	entries, err := s.orders.ListProgress(ctx, orderID)
	if err != nil {
		return nil, backend("list progress", err)
	}
	if entries == nil {
		entries = []models.ProgressEntry{}
	}
	return entries, nil
}

func isProgressStatus(s models.OrderStatus) bool {
	for _, v := range progressStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
