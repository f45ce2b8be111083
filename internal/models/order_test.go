package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-desk-backend/internal/models"
)

func TestLineItemsTotal(t *testing.T) {
	items := models.LineItems{
		{Product: "Bread", Quantity: 2, Price: decimal.RequireFromString("5.00")},
		{Product: "Milk", Quantity: 1, Price: decimal.RequireFromString("15.00")},
	}
	assert.Equal(t, "25.00", items.Total().StringFixed(2))

	// The total is the exact sum, never rounded.
	single := models.LineItems{{Product: "Cake", Quantity: 3, Price: decimal.RequireFromString("0.335")}}
	assert.True(t, single.Total().Equal(decimal.RequireFromString("1.005")))

	assert.True(t, models.LineItems{}.Total().IsZero())
}

func TestLineItemsScan(t *testing.T) {
	var items models.LineItems
	require.NoError(t, items.Scan([]byte(`[{"producto":"Bread","cantidad":2,"precio":5.5}]`)))
	require.Len(t, items, 1)
	assert.Equal(t, "Bread", items[0].Product)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("5.5")))

	// Array stored as a JSON string.
	var legacy models.LineItems
	require.NoError(t, legacy.Scan(`"[{\"producto\":\"Milk\",\"cantidad\":1,\"precio\":3}]"`))
	require.Len(t, legacy, 1)
	assert.Equal(t, "Milk", legacy[0].Product)

	var empty models.LineItems
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)

	var bad models.LineItems
	assert.Error(t, bad.Scan([]byte(`{"producto":"x"}`)))
	assert.Error(t, bad.Scan(42))
}

func TestLineItemsValue(t *testing.T) {
	v, err := models.LineItems(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.StatusPending, models.StatusInProgress, true},
		{models.StatusPending, models.StatusCompleted, false},
		{models.StatusInProgress, models.StatusInProgress, true},
		{models.StatusInProgress, models.StatusCompleted, true},
		{models.StatusInProgress, models.StatusDelivered, false},
		{models.StatusCompleted, models.StatusDelivered, true},
		{models.StatusCompleted, models.StatusInProgress, false},
		{models.StatusDelivered, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, models.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestSourcesFor(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.OrderStatus{models.StatusCompleted},
		models.SourcesFor(models.StatusDelivered))
	assert.ElementsMatch(t,
		[]models.OrderStatus{models.StatusPending, models.StatusInProgress, models.StatusCompleted},
		models.SourcesFor(models.StatusCancelled))
	assert.Empty(t, models.SourcesFor("shipped"))
}

func TestOrderConditionMatches(t *testing.T) {
	worker := uuid.New()
	other := uuid.New()

	pending := &models.Order{Status: models.StatusPending}
	held := &models.Order{Status: models.StatusInProgress, AssignedTo: &worker}

	claim := models.OrderCondition{StatusIn: []models.OrderStatus{models.StatusPending}, Unassigned: true}
	assert.True(t, claim.Matches(pending))
	assert.False(t, claim.Matches(held))

	owned := models.OrderCondition{AssignedTo: &worker}
	assert.True(t, owned.Matches(held))
	assert.False(t, models.OrderCondition{AssignedTo: &other}.Matches(held))
	assert.False(t, owned.Matches(pending))

	open := models.OrderCondition{StatusNotIn: models.TerminalStatuses}
	assert.True(t, open.Matches(held))
	assert.False(t, open.Matches(&models.Order{Status: models.StatusDelivered}))
}

func TestOrderPatchApply(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	worker := uuid.New()
	inProgress := models.StatusInProgress

	o := &models.Order{Status: models.StatusPending}
	models.OrderPatch{Status: &inProgress, AssignTo: &worker}.Apply(o, now)
	assert.Equal(t, models.StatusInProgress, o.Status)
	require.NotNil(t, o.AssignedTo)
	assert.Equal(t, worker, *o.AssignedTo)
	assert.Equal(t, now, *o.AssignedAt)
	assert.Equal(t, now, o.UpdatedAt)

	later := now.Add(time.Minute)
	models.OrderPatch{ClearAssignment: true}.Apply(o, later)
	assert.Nil(t, o.AssignedTo)
	assert.Nil(t, o.AssignedAt)
	assert.Equal(t, later, o.UpdatedAt)
}

func TestOrderFilterMatches(t *testing.T) {
	worker := uuid.New()
	o := &models.Order{Status: models.StatusCancelled, AssignedTo: &worker}

	assert.True(t, models.OrderFilter{}.Matches(o))
	assert.True(t, models.OrderFilter{AssignedTo: &worker}.Matches(o))
	assert.False(t, models.OrderFilter{Unassigned: true}.Matches(o))
	assert.False(t, models.OrderFilter{ExcludeStatuses: []models.OrderStatus{models.StatusCancelled}}.Matches(o))
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, models.PaymentCash.Valid())
	assert.True(t, models.PaymentTransfer.Valid())
	assert.False(t, models.PaymentMethod("bitcoin").Valid())
}
