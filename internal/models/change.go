package models

import (
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
	// ChangeResync is emitted after the feed lost events and the view was
	// rebuilt from the store.
	ChangeResync ChangeType = "RESYNC"
)

// ChangeNotice is the raw row-level notification from the orders table.
type ChangeNotice struct {
	Type      ChangeType `json:"type"`
	OrderID   uuid.UUID  `json:"id"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ChangeEvent is a notice resolved against the store.
type ChangeEvent struct {
	Type    ChangeType `json:"type"`
	OrderID uuid.UUID  `json:"order_id"`
	Order   *Order     `json:"order,omitempty"`
	At      time.Time  `json:"at"`
}
