package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressEntry is an append-only audit row written by the assigned worker.
type ProgressEntry struct {
	ID        uuid.UUID   `json:"id"`
	OrderID   uuid.UUID   `json:"order_id"`
	WorkerID  uuid.UUID   `json:"worker_id"`
	Status    OrderStatus `json:"status"`
	Notes     string      `json:"notes"`
	CreatedAt time.Time   `json:"created_at"`

	Worker *ProfileRef `json:"worker,omitempty"`
}
