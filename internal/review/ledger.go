package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors for ledger operations. Both indicate a contract bug upstream
// and are fatal to the run; they are never silently repaired.
var (
	ErrDuplicateTodoID = errors.New("duplicate todo id")
	ErrUnknownTodoID   = errors.New("unknown todo id")
)

// Ledger owns todo creation and status recording for one session.
// Todos keep their creation order; status history is append-only.
//
// Ledger is not safe for concurrent use. During the act phase's
// delegation fan-out all writes go through a single collector.
type Ledger struct {
	todos   []Todo
	index   map[string]int
	history []TodoStatus
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Create appends the candidate todos. It is all-or-nothing: if any
// identifier collides with an existing entry or another candidate, the
// ledger is left unchanged and ErrDuplicateTodoID is returned.
func (l *Ledger) Create(todos []Todo) error {
	seen := make(map[string]struct{}, len(todos))
	for _, t := range todos {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, ok := l.index[t.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTodoID, t.ID)
		}
		if _, ok := seen[t.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTodoID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	for _, t := range todos {
		l.index[t.ID] = len(l.todos)
		l.todos = append(l.todos, t)
	}
	return nil
}

// RecordStatus appends a new TodoStatus entry. History is never
// overwritten; re-statusing a todo adds another entry.
func (l *Ledger) RecordStatus(todoID string, status Status, explanation string) error {
	if _, ok := l.index[todoID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTodoID, todoID)
	}
	if !status.Valid() {
		return fmt.Errorf("invalid status %q for todo %s", status, todoID)
	}
	l.history = append(l.history, TodoStatus{
		TodoID:      todoID,
		Status:      status,
		Explanation: explanation,
		RecordedAt:  time.Now().UTC(),
	})
	return nil
}

// Pending returns todos with no terminal status recorded yet, in
// original creation order.
func (l *Ledger) Pending() []Todo {
	resolved := make(map[string]struct{}, len(l.history))
	for _, s := range l.history {
		resolved[s.TodoID] = struct{}{}
	}
	var pending []Todo
	for _, t := range l.todos {
		if _, ok := resolved[t.ID]; !ok {
			pending = append(pending, t)
		}
	}
	return pending
}

// Todos returns all todos in creation order.
func (l *Ledger) Todos() []Todo {
	out := make([]Todo, len(l.todos))
	copy(out, l.todos)
	return out
}

// Get returns the todo with the given id.
func (l *Ledger) Get(todoID string) (Todo, error) {
	i, ok := l.index[todoID]
	if !ok {
		return Todo{}, fmt.Errorf("%w: %s", ErrUnknownTodoID, todoID)
	}
	return l.todos[i], nil
}

// History returns every status entry recorded for the todo, oldest first.
func (l *Ledger) History(todoID string) []TodoStatus {
	var out []TodoStatus
	for _, s := range l.history {
		if s.TodoID == todoID {
			out = append(out, s)
		}
	}
	return out
}

// Resolutions returns the latest recorded status per todo, in creation
// order. Todos never statused are omitted.
func (l *Ledger) Resolutions() []TodoStatus {
	latest := make(map[string]TodoStatus, len(l.todos))
	for _, s := range l.history {
		latest[s.TodoID] = s
	}
	out := make([]TodoStatus, 0, len(latest))
	for _, t := range l.todos {
		if s, ok := latest[t.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of todos ever created.
func (l *Ledger) Len() int {
	return len(l.todos)
}

// ledgerState is the serialized ledger shape.
type ledgerState struct {
	Todos   []Todo       `json:"todos"`
	History []TodoStatus `json:"history"`
}

// MarshalJSON implements json.Marshaler.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(ledgerState{Todos: l.todos, History: l.history})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var st ledgerState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	l.todos = st.Todos
	l.history = st.History
	l.index = make(map[string]int, len(st.Todos))
	for i, t := range st.Todos {
		if _, ok := l.index[t.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTodoID, t.ID)
		}
		l.index[t.ID] = i
	}
	return nil
}
