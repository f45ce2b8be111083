package services

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"order-desk-backend/internal/models"
)

type viewEntry struct {
	order   models.Order
	deleted bool
}

// OrderView is a local copy of the orders table kept current by merging
// change events. Merges are keyed by order id and updated_at, so duplicate
// and out-of-order deliveries leave the view unchanged.
type OrderView struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*viewEntry
}

func NewOrderView() *OrderView {
	return &OrderView{entries: make(map[uuid.UUID]*viewEntry)}
}

// Apply merges ev and reports whether the view changed.
func (v *OrderView) Apply(ev models.ChangeEvent) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	current, known := v.entries[ev.OrderID]

	switch ev.Type {
	case models.ChangeInsert, models.ChangeUpdate:
		if ev.Order == nil {
			return false
		}
		if known {
			// Deleted orders stay deleted; late updates are dropped.
			if current.deleted || !ev.Order.UpdatedAt.After(current.order.UpdatedAt) {
				return false
			}
		}
		v.entries[ev.OrderID] = &viewEntry{order: *ev.Order}
		return true

	case models.ChangeDelete:
		if known && current.deleted {
			return false
		}
		v.entries[ev.OrderID] = &viewEntry{deleted: true}
		return known
	}
	return false
}

// Reset replaces the view with orders.
func (v *OrderView) Reset(orders []models.Order) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.entries = make(map[uuid.UUID]*viewEntry, len(orders))
	for _, o := range orders {
		v.entries[o.ID] = &viewEntry{order: o}
	}
}

func (v *OrderView) Get(id uuid.UUID) (*models.Order, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	e, ok := v.entries[id]
	if !ok || e.deleted {
		return nil, false
	}
	o := e.order
	return &o, true
}

// Snapshot returns the live orders, newest first.
func (v *OrderView) Snapshot() []models.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()

	orders := make([]models.Order, 0, len(v.entries))
	for _, e := range v.entries {
		if !e.deleted {
			orders = append(orders, e.order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID.String() < orders[j].ID.String()
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (v *OrderView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	n := 0
	for _, e := range v.entries {
		if !e.deleted {
			n++
		}
	}
	return n
}
