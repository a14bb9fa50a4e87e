// Package skills holds the worker capabilities a security review can
// delegate to, and the registry that resolves them by name.
package skills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/reviewd/internal/review"
)

// ErrSkillNotFound is returned when a capability name has no
// registration. Callers treat this as a failed unit of work, not a
// fatal error.
var ErrSkillNotFound = errors.New("skill not found")

// Task is the unit of work handed to a skill. It deliberately carries
// no session state: a skill sees only its own todo.
type Task struct {
	// TodoID identifies the todo this task resolves.
	TodoID string `json:"todo_id"`

	// Description is the todo's description verbatim.
	Description string `json:"description"`

	// Framing is the oracle's task framing for this delegation.
	Framing string `json:"framing,omitempty"`

	// AcceptanceCriteria mirrors the todo's completion bar.
	AcceptanceCriteria string `json:"acceptance_criteria,omitempty"`

	// Context is optional extra material (file lists, diffs, prior
	// findings) serialized for the skill.
	Context json.RawMessage `json:"context,omitempty"`
}

// Validate checks the task is executable.
func (t *Task) Validate() error {
	if t.TodoID == "" {
		return fmt.Errorf("task requires a todo id")
	}
	if t.Description == "" {
		return fmt.Errorf("task requires a description")
	}
	return nil
}

// Result is what a skill produces for one task.
type Result struct {
	// Findings are the security findings the skill surfaced, if any.
	Findings []review.Finding `json:"findings,omitempty"`

	// Output is the skill's free-form summary of what it did.
	Output string `json:"output,omitempty"`
}

// Skill is one worker capability.
//
// Execute must honor ctx cancellation; the dispatcher enforces a
// per-delegation timeout through it. A skill that returns an error
// produces a failed result for its todo and never aborts the run.
type Skill interface {
	// Name is the capability name the registry resolves.
	Name() string

	// Execute runs the task to completion.
	Execute(ctx context.Context, task Task) (*Result, error)
}
