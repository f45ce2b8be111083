package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusCompleted  OrderStatus = "completed"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var AllStatuses = []OrderStatus{
	StatusPending, StatusInProgress, StatusCompleted, StatusDelivered, StatusCancelled,
}

// TerminalStatuses are the closed end states of the lifecycle.
var TerminalStatuses = []OrderStatus{StatusDelivered, StatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// transitions lists the statuses reachable from each status. Self edges on
// in_progress and completed are progress notes that keep the status.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusInProgress, StatusPending, StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusCompleted, StatusDelivered, StatusCancelled},
}

func CanTransition(from, to OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SourcesFor returns every status from which to is reachable.
func SourcesFor(to OrderStatus) []OrderStatus {
	var sources []OrderStatus
	for _, from := range AllStatuses {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "efectivo"
	PaymentCredit   PaymentMethod = "credito"
	PaymentDollars  PaymentMethod = "dolares"
	PaymentCheque   PaymentMethod = "cheque"
	PaymentTransfer PaymentMethod = "transferencia"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCredit, PaymentDollars, PaymentCheque, PaymentTransfer:
		return true
	}
	return false
}

type LineItem struct {
	Product  string          `json:"producto"`
	Quantity int             `json:"cantidad"`
	Price    decimal.Decimal `json:"precio"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItems is stored as a JSONB array in lista_productos.
type LineItems []LineItem

// Total is the exact sum of quantity×price. Prices carry at most two
// decimals, so the result is in cents.
func (items LineItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Subtotal())
	}
	return total
}

func (items LineItems) Value() (driver.Value, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

func (items *LineItems) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*items = LineItems{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into LineItems", src)
	}

	// Older rows hold the array serialized as a JSON string.
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		data = []byte(encoded)
	}

	var out LineItems
	if err := json.Unmarshal(data, &out); err != nil {
		return errors.New("lista_productos is not a valid line item array")
	}
	*items = out
	return nil
}

// ProfileRef is the identity joined onto orders and progress entries.
type ProfileRef struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	CustomerName    string          `json:"nombre_cliente"`
	CustomerPhone   *string         `json:"customer_phone"`
	CustomerAddress *string         `json:"customer_address"`
	Items           LineItems       `json:"lista_productos"`
	DeliveryDate    string          `json:"fecha_entrega"`
	Paid            bool            `json:"esta_pagado"`
	PaymentMethod   PaymentMethod   `json:"metodo_pago"`
	Total           decimal.Decimal `json:"monto_total"`
	Status          OrderStatus     `json:"status"`
	Notes           *string         `json:"notas"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	AssignedTo      *uuid.UUID      `json:"assigned_to"`
	AssignedAt      *time.Time      `json:"assigned_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Creator  *ProfileRef `json:"creator,omitempty"`
	Assignee *ProfileRef `json:"assignee,omitempty"`
}

// OrderFilter selects orders for list queries. Zero fields are ignored.
type OrderFilter struct {
	Status          *OrderStatus
	AssignedTo      *uuid.UUID
	Unassigned      bool
	ExcludeStatuses []OrderStatus
	// ByAssignedAt orders by assigned_at instead of created_at, newest first.
	ByAssignedAt bool
}

func (f OrderFilter) Matches(o *Order) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.AssignedTo != nil && (o.AssignedTo == nil || *o.AssignedTo != *f.AssignedTo) {
		return false
	}
	if f.Unassigned && o.AssignedTo != nil {
		return false
	}
	for _, s := range f.ExcludeStatuses {
		if o.Status == s {
			return false
		}
	}
	return true
}

// OrderCondition is the predicate of a compare-and-swap update. All set
// fields must hold for the write to apply.
type OrderCondition struct {
	StatusIn    []OrderStatus
	StatusNotIn []OrderStatus
	AssignedTo  *uuid.UUID
	Unassigned  bool
}

func (c OrderCondition) Matches(o *Order) bool {
	if len(c.StatusIn) > 0 && !containsStatus(c.StatusIn, o.Status) {
		return false
	}
	if containsStatus(c.StatusNotIn, o.Status) {
		return false
	}
	if c.AssignedTo != nil && (o.AssignedTo == nil || *o.AssignedTo != *c.AssignedTo) {
		return false
	}
	if c.Unassigned && o.AssignedTo != nil {
		return false
	}
	return true
}

// OrderPatch is the write half of a compare-and-swap update. updated_at is
// always refreshed.
type OrderPatch struct {
	Status *OrderStatus
	// AssignTo sets assigned_to and stamps assigned_at.
	AssignTo        *uuid.UUID
	ClearAssignment bool
}

func (p OrderPatch) Apply(o *Order, now time.Time) {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.AssignTo != nil {
		id := *p.AssignTo
		o.AssignedTo = &id
		o.AssignedAt = &now
	}
	if p.ClearAssignment {
		o.AssignedTo = nil
		o.AssignedAt = nil
	}
	o.UpdatedAt = now
}

func containsStatus(list []OrderStatus, s OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
