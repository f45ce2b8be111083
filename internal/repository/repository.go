// Package repository declares the storage contracts used by the services and
// an in-memory implementation of them.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"order-desk-backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConditionFailed means a conditional write matched zero rows.
	ErrConditionFailed = errors.New("condition not met")
)

type Orders interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	// UpdateOrderIf applies patch only if cond holds, as a single write.
	UpdateOrderIf(ctx context.Context, id uuid.UUID, cond models.OrderCondition, patch models.OrderPatch) (*models.Order, error)
	// RecordProgressIf applies patch under cond and appends entry atomically.
	RecordProgressIf(ctx context.Context, entry *models.ProgressEntry, cond models.OrderCondition, patch models.OrderPatch) (*models.Order, *models.ProgressEntry, error)
	ListProgress(ctx context.Context, orderID uuid.UUID) ([]models.ProgressEntry, error)
}

type Profiles interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch models.ProfilePatch) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetWorkerStats(ctx context.Context, id uuid.UUID) (*models.WorkerStats, error)
}

// CompletionRate is the percentage of assigned orders that were completed,
// rounded to the nearest integer.
func CompletionRate(completed, assigned int) int {
	if assigned == 0 {
		return 0
	}
	return (completed*100 + assigned/2) / assigned
}
