package review

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTodo(id, desc string) Todo {
	return Todo{
		ID:          id,
		Description: desc,
		Priority:    PriorityMedium,
		Risk:        RiskInjection,
	}
}

func TestLedger_Create(t *testing.T) {
	l := NewLedger()

	err := l.Create([]Todo{
		makeTodo("td-1", "audit SQL query construction"),
		makeTodo("td-2", "check session token generation"),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
	assert.Len(t, l.Pending(), 2)
}

func TestLedger_Create_DuplicateLeavesLedgerUnchanged(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Create([]Todo{makeTodo("td-1", "first")}))

	err := l.Create([]Todo{
		makeTodo("td-2", "second"),
		makeTodo("td-1", "collides"),
	})

	require.ErrorIs(t, err, ErrDuplicateTodoID)
	assert.Equal(t, 1, l.Len(), "failed create must not partially apply")
	_, getErr := l.Get("td-2")
	assert.ErrorIs(t, getErr, ErrUnknownTodoID)
}

func TestLedger_Create_DuplicateWithinBatch(t *testing.T) {
	l := NewLedger()

	err := l.Create([]Todo{
		makeTodo("td-1", "a"),
		makeTodo("td-1", "b"),
	})

	require.ErrorIs(t, err, ErrDuplicateTodoID)
	assert.Equal(t, 0, l.Len())
}

func TestLedger_Create_InvalidTodo(t *testing.T) {
	l := NewLedger()

	err := l.Create([]Todo{{ID: "td-1", Description: "x", Priority: "urgent", Risk: RiskAuth}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority")
}

func TestLedger_RecordStatus_UnknownID(t *testing.T) {
	l := NewLedger()

	err := l.RecordStatus("td-404", StatusDone, "resolved")

	require.ErrorIs(t, err, ErrUnknownTodoID)
}

func TestLedger_StatusHistoryAppendOnly(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Create([]Todo{makeTodo("td-1", "revisited todo")}))

	require.NoError(t, l.RecordStatus("td-1", StatusDeferred, "needs environment"))
	require.NoError(t, l.RecordStatus("td-1", StatusBlocked, "tool unavailable"))
	require.NoError(t, l.RecordStatus("td-1", StatusDone, "verified on retry"))

	history := l.History("td-1")
	require.Len(t, history, 3)
	assert.Equal(t, StatusDeferred, history[0].Status)
	assert.Equal(t, StatusBlocked, history[1].Status)
	assert.Equal(t, StatusDone, history[2].Status)

	// Latest entry wins for resolution summary.
	res := l.Resolutions()
	require.Len(t, res, 1)
	assert.Equal(t, StatusDone, res[0].Status)
}

func TestLedger_Pending_CreationOrder(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Create([]Todo{
		makeTodo("td-1", "a"),
		makeTodo("td-2", "b"),
		makeTodo("td-3", "c"),
	}))
	require.NoError(t, l.RecordStatus("td-2", StatusDone, "done"))

	pending := l.Pending()

	require.Len(t, pending, 2)
	assert.Equal(t, "td-1", pending[0].ID)
	assert.Equal(t, "td-3", pending[1].ID)
}

func TestLedger_JSONRoundTrip(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Create([]Todo{
		makeTodo("td-1", "a"),
		makeTodo("td-2", "b"),
	}))
	require.NoError(t, l.RecordStatus("td-1", StatusDone, "resolved"))
	require.NoError(t, l.RecordStatus("td-1", StatusDone, "re-verified"))

	data, err := json.Marshal(l)
	require.NoError(t, err)

	restored := NewLedger()
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, l.Todos(), restored.Todos())
	assert.Equal(t, l.History("td-1"), restored.History("td-1"))
	assert.Len(t, restored.Pending(), 1)
	assert.Equal(t, "td-2", restored.Pending()[0].ID)

	// Invariants survive the round trip.
	err = restored.Create([]Todo{makeTodo("td-1", "collides")})
	assert.ErrorIs(t, err, ErrDuplicateTodoID)
}
