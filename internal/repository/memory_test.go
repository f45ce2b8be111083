package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-desk-backend/internal/models"
)

func newOrder(createdBy uuid.UUID) *models.Order {
	return &models.Order{
		CustomerName:  "Ana",
		Items:         models.LineItems{{Product: "Pan", Quantity: 2, Price: decimal.RequireFromString("1.50")}},
		DeliveryDate:  "2026-10-20",
		PaymentMethod: models.PaymentCash,
		Total:         decimal.RequireFromString("3.00"),
		Status:        models.StatusPending,
		CreatedBy:     createdBy,
	}
}

func TestMemoryCreateAndGetJoinsProfiles(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	admin := uuid.New()
	_, err := m.CreateProfile(ctx, &models.Profile{ID: admin, Email: "admin@example.com", FullName: "Admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	created, err := m.CreateOrder(ctx, newOrder(admin))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := m.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "Admin", got.Creator.FullName)
	assert.Nil(t, got.Assignee)

	_, err = m.GetOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	created, err := m.CreateOrder(ctx, newOrder(uuid.New()))
	require.NoError(t, err)

	created.Items[0].Product = "changed"
	created.Status = models.StatusCancelled

	got, err := m.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pan", got.Items[0].Product)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestMemoryUpdateOrderIf(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	created, err := m.CreateOrder(ctx, newOrder(uuid.New()))
	require.NoError(t, err)

	worker := uuid.New()
	inProgress := models.StatusInProgress
	claim := models.OrderCondition{StatusIn: []models.OrderStatus{models.StatusPending}, Unassigned: true}

	updated, err := m.UpdateOrderIf(ctx, created.ID, claim, models.OrderPatch{Status: &inProgress, AssignTo: &worker})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, worker, *updated.AssignedTo)
	assert.NotNil(t, updated.AssignedAt)

	// Same condition no longer holds.
	_, err = m.UpdateOrderIf(ctx, created.ID, claim, models.OrderPatch{Status: &inProgress, AssignTo: &worker})
	assert.ErrorIs(t, err, ErrConditionFailed)

	_, err = m.UpdateOrderIf(ctx, uuid.New(), models.OrderCondition{}, models.OrderPatch{})
	assert.ErrorIs(t, err, ErrConditionFailed)
}

func TestMemoryConcurrentConditionalWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	created, err := m.CreateOrder(ctx, newOrder(uuid.New()))
	require.NoError(t, err)

	inProgress := models.StatusInProgress
	claim := models.OrderCondition{StatusIn: []models.OrderStatus{models.StatusPending}, Unassigned: true}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker := uuid.New()
			if _, err := m.UpdateOrderIf(ctx, created.ID, claim, models.OrderPatch{Status: &inProgress, AssignTo: &worker}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryRecordProgressIf(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	worker := uuid.New()
	_, err := m.CreateProfile(ctx, &models.Profile{ID: worker, Email: "w@example.com", FullName: "Worker", Role: models.RoleWorker})
	require.NoError(t, err)

	order := newOrder(uuid.New())
	order.Status = models.StatusInProgress
	order.AssignedTo = &worker
	created, err := m.CreateOrder(ctx, order)
	require.NoError(t, err)

	owned := models.OrderCondition{AssignedTo: &worker, StatusIn: []models.OrderStatus{models.StatusInProgress}}
	completed := models.StatusCompleted
	entry := &models.ProgressEntry{OrderID: created.ID, WorkerID: worker, Status: completed, Notes: "listo"}

	updated, stored, err := m.RecordProgressIf(ctx, entry, owned, models.OrderPatch{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.NotEqual(t, uuid.Nil, stored.ID)
	require.NotNil(t, stored.Worker)
	assert.Equal(t, "Worker", stored.Worker.FullName)

	// Condition fails: nothing is appended.
	_, _, err = m.RecordProgressIf(ctx, entry, owned, models.OrderPatch{Status: &completed})
	assert.ErrorIs(t, err, ErrConditionFailed)

	entries, err := m.ListProgress(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMemoryListProgressNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	worker := uuid.New()
	order := newOrder(uuid.New())
	order.Status = models.StatusInProgress
	order.AssignedTo = &worker
	created, err := m.CreateOrder(ctx, order)
	require.NoError(t, err)

	owned := models.OrderCondition{AssignedTo: &worker}
	for _, note := range []string{"first", "second", "third"} {
		_, _, err := m.RecordProgressIf(ctx, &models.ProgressEntry{
			OrderID: created.ID, WorkerID: worker, Status: models.StatusInProgress, Notes: note,
		}, owned, models.OrderPatch{})
		require.NoError(t, err)
	}

	entries, err := m.ListProgress(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Notes)
	assert.Equal(t, "first", entries[2].Notes)
}

func TestMemoryListOrdersFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	clock := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	admin := uuid.New()
	first, err := m.CreateOrder(ctx, newOrder(admin))
	require.NoError(t, err)
	second, err := m.CreateOrder(ctx, newOrder(admin))
	require.NoError(t, err)

	all, err := m.ListOrders(ctx, models.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	worker := uuid.New()
	inProgress := models.StatusInProgress
	_, err = m.UpdateOrderIf(ctx, first.ID, models.OrderCondition{Unassigned: true}, models.OrderPatch{Status: &inProgress, AssignTo: &worker})
	require.NoError(t, err)

	available, err := m.ListOrders(ctx, models.OrderFilter{Unassigned: true, Status: statusPtr(models.StatusPending)})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, second.ID, available[0].ID)

	mine, err := m.ListOrders(ctx, models.OrderFilter{AssignedTo: &worker, ByAssignedAt: true})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
}

func TestMemoryOnChange(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	notices := make(chan models.ChangeNotice, 4)
	m.OnChange(func(n models.ChangeNotice) { notices <- n })

	created, err := m.CreateOrder(ctx, newOrder(uuid.New()))
	require.NoError(t, err)

	select {
	case n := <-notices:
		assert.Equal(t, models.ChangeInsert, n.Type)
		assert.Equal(t, created.ID, n.OrderID)
	case <-time.After(time.Second):
		t.Fatal("no change notice")
	}
}

func TestMemoryProfiles(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id := uuid.New()

	first, err := m.CreateProfile(ctx, &models.Profile{ID: id, Email: "a@example.com", FullName: "A", Role: models.RoleWorker})
	require.NoError(t, err)
	// A second create returns the existing row.
	again, err := m.CreateProfile(ctx, &models.Profile{ID: id, Email: "a@example.com", FullName: "Other", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, first.FullName, again.FullName)
	assert.Equal(t, models.RoleWorker, again.Role)

	name := "Renamed"
	updated, err := m.UpdateProfile(ctx, id, models.ProfilePatch{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)

	_, err = m.UpdateProfile(ctx, uuid.New(), models.ProfilePatch{FullName: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0, CompletionRate(0, 0))
	assert.Equal(t, 50, CompletionRate(1, 2))
	assert.Equal(t, 67, CompletionRate(2, 3))
	assert.Equal(t, 100, CompletionRate(4, 4))
}

func statusPtr(s models.OrderStatus) *models.OrderStatus { return &s }
