package supabase

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"order-desk-backend/internal/models"
)

func TestUpdateIfSQL_Claim(t *testing.T) {
	id := uuid.New()
	worker := uuid.New()
	inProgress := models.StatusInProgress

	query, args := updateIfSQL(id,
		models.OrderCondition{StatusIn: []models.OrderStatus{models.StatusPending}, Unassigned: true},
		models.OrderPatch{Status: &inProgress, AssignTo: &worker},
	)

	assert.Equal(t,
		"UPDATE orders SET updated_at = NOW(), status = $2, assigned_to = $3, assigned_at = NOW()"+
			" WHERE id = $1 AND status = ANY($4) AND assigned_to IS NULL RETURNING id",
		query)
	assert.Equal(t, []interface{}{id, "in_progress", worker, pq.Array([]string{"pending"})}, args)
}

func TestUpdateIfSQL_Release(t *testing.T) {
	id := uuid.New()
	worker := uuid.New()
	pending := models.StatusPending

	query, args := updateIfSQL(id,
		models.OrderCondition{StatusIn: []models.OrderStatus{models.StatusInProgress}, AssignedTo: &worker},
		models.OrderPatch{Status: &pending, ClearAssignment: true},
	)

	assert.Equal(t,
		"UPDATE orders SET updated_at = NOW(), status = $2, assigned_to = NULL, assigned_at = NULL"+
			" WHERE id = $1 AND status = ANY($3) AND assigned_to = $4 RETURNING id",
		query)
	assert.Len(t, args, 4)
	assert.Equal(t, worker, args[3])
}

func TestUpdateIfSQL_StatusNotIn(t *testing.T) {
	query, args := updateIfSQL(uuid.New(),
		models.OrderCondition{StatusNotIn: models.TerminalStatuses},
		models.OrderPatch{},
	)

	assert.Equal(t,
		"UPDATE orders SET updated_at = NOW() WHERE id = $1 AND NOT (status = ANY($2)) RETURNING id",
		query)
	assert.Equal(t, pq.Array([]string{"delivered", "cancelled"}), args[1])
}

func TestFilterSQL(t *testing.T) {
	where, args := filterSQL(models.OrderFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	pending := models.StatusPending
	where, args = filterSQL(models.OrderFilter{Status: &pending, Unassigned: true})
	assert.Equal(t, " WHERE o.status = $1 AND o.assigned_to IS NULL", where)
	assert.Equal(t, []interface{}{"pending"}, args)

	worker := uuid.New()
	where, args = filterSQL(models.OrderFilter{
		AssignedTo:      &worker,
		ExcludeStatuses: []models.OrderStatus{models.StatusCancelled},
	})
	assert.Equal(t, " WHERE o.assigned_to = $1 AND NOT (o.status = ANY($2))", where)
	assert.Equal(t, worker, args[0])
}
