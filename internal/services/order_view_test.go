package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/services"
)

func viewOrder(id uuid.UUID, status models.OrderStatus, created, updated time.Time) *models.Order {
	return &models.Order{ID: id, Status: status, CreatedAt: created, UpdatedAt: updated}
}

func TestOrderView_MergeIsIdempotent(t *testing.T) {
	v := services.NewOrderView()
	id := uuid.New()
	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	insert := models.ChangeEvent{Type: models.ChangeInsert, OrderID: id, Order: viewOrder(id, models.StatusPending, t0, t0)}
	assert.True(t, v.Apply(insert))
	assert.False(t, v.Apply(insert), "duplicate delivery")

	update := models.ChangeEvent{Type: models.ChangeUpdate, OrderID: id, Order: viewOrder(id, models.StatusInProgress, t0, t0.Add(time.Minute))}
	assert.True(t, v.Apply(update))

	// A stale event arriving late does not roll the order back.
	assert.False(t, v.Apply(insert))

	got, ok := v.Get(id)
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, 1, v.Len())
}

func TestOrderView_DeleteLeavesTombstone(t *testing.T) {
	v := services.NewOrderView()
	id := uuid.New()
	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	require.True(t, v.Apply(models.ChangeEvent{Type: models.ChangeInsert, OrderID: id, Order: viewOrder(id, models.StatusPending, t0, t0)}))
	assert.True(t, v.Apply(models.ChangeEvent{Type: models.ChangeDelete, OrderID: id}))
	assert.False(t, v.Apply(models.ChangeEvent{Type: models.ChangeDelete, OrderID: id}))

	late := models.ChangeEvent{Type: models.ChangeUpdate, OrderID: id, Order: viewOrder(id, models.StatusCompleted, t0, t0.Add(time.Hour))}
	assert.False(t, v.Apply(late))

	_, ok := v.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, v.Len())

	// Unknown deletes change nothing visible.
	assert.False(t, v.Apply(models.ChangeEvent{Type: models.ChangeDelete, OrderID: uuid.New()}))
}

func TestOrderView_SnapshotNewestFirst(t *testing.T) {
	v := services.NewOrderView()
	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	older := *viewOrder(uuid.New(), models.StatusPending, t0, t0)
	newer := *viewOrder(uuid.New(), models.StatusPending, t0.Add(time.Hour), t0.Add(time.Hour))
	v.Reset([]models.Order{older, newer})

	snap := v.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, newer.ID, snap[0].ID)
	assert.Equal(t, older.ID, snap[1].ID)

	v.Reset(nil)
	assert.Empty(t, v.Snapshot())
}
