package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/reviewd/internal/review"
)

var (
	// ErrMalformedDecision indicates the oracle returned a payload that
	// failed schema validation. Recoverable per-phase.
	ErrMalformedDecision = errors.New("malformed oracle decision")

	// ErrUnavailable indicates the oracle could not be reached or did
	// not produce a response. Recoverable per-phase.
	ErrUnavailable = errors.New("oracle unavailable")
)

// Request is the structured context sent with every oracle call.
type Request struct {
	// Phase names the calling phase; the oracle's expected response
	// shape is determined by it.
	Phase string `json:"phase"`

	// Context is a read-only snapshot of the session, serialized.
	Context json.RawMessage `json:"context,omitempty"`

	// Instructions carries task-specific guidance.
	Instructions string `json:"instructions,omitempty"`
}

// Client is the decision-oracle boundary. Implementations are stateless
// from the orchestrator's point of view.
type Client interface {
	// Decide sends the request and returns the raw decision payload.
	Decide(ctx context.Context, req Request) (json.RawMessage, error)
}

// PlanDecision is the plan_todos-phase payload: the initial todo set.
type PlanDecision struct {
	Todos []review.Todo `json:"todos"`
}

// Validate checks the decision shape.
func (d *PlanDecision) Validate() error {
	if len(d.Todos) == 0 {
		return fmt.Errorf("plan produced no todos")
	}
	for i, t := range d.Todos {
		// IDs may be assigned by the caller afterwards; everything else
		// must already be well-formed.
		if t.Description == "" {
			return fmt.Errorf("todo %d: description is required", i)
		}
		if !t.Priority.Valid() {
			return fmt.Errorf("todo %d: invalid priority %q", i, t.Priority)
		}
		if !t.Risk.Valid() {
			return fmt.Errorf("todo %d: invalid risk category %q", i, t.Risk)
		}
	}
	return nil
}

// InlineResolution resolves a todo without delegating to a worker.
type InlineResolution struct {
	Status      review.Status    `json:"status"`
	Explanation string           `json:"explanation"`
	Findings    []review.Finding `json:"findings,omitempty"`
}

// DelegationDecision is the per-todo payload during the act phase:
// either a worker capability to invoke or an inline resolution.
type DelegationDecision struct {
	// Delegate directs the dispatcher to invoke a worker capability.
	Delegate bool `json:"delegate"`

	// Capability names the worker to resolve when Delegate is true.
	Capability string `json:"capability,omitempty"`

	// Task frames the unit of work handed to the worker.
	Task string `json:"task,omitempty"`

	// Resolution is required when Delegate is false: the oracle settled
	// the todo without a worker (trivial todos, policy short-circuit).
	Resolution *InlineResolution `json:"resolution,omitempty"`
}

// Validate checks the decision shape.
func (d *DelegationDecision) Validate() error {
	if d.Delegate {
		if d.Capability == "" {
			return fmt.Errorf("delegation requires a capability name")
		}
		return nil
	}
	if d.Resolution == nil {
		return fmt.Errorf("non-delegated todo requires an inline resolution")
	}
	if !d.Resolution.Status.Valid() {
		return fmt.Errorf("invalid inline resolution status %q", d.Resolution.Status)
	}
	return nil
}

// EvaluationDecision is the evaluate-phase payload: final triage and
// the run's terminal verdict.
type EvaluationDecision struct {
	Accept  bool   `json:"accept"`
	Summary string `json:"summary"`

	// SeverityOverrides lets the triage adjust individual findings
	// (matched by location + category) before the report is emitted.
	SeverityOverrides []SeverityOverride `json:"severity_overrides,omitempty"`
}

// SeverityOverride retargets one consolidated finding's severity.
type SeverityOverride struct {
	Location string              `json:"location"`
	Category review.RiskCategory `json:"category"`
	Severity review.Severity     `json:"severity"`
}

// Validate checks the decision shape.
func (d *EvaluationDecision) Validate() error {
	if d.Summary == "" {
		return fmt.Errorf("evaluation requires a summary")
	}
	for i, o := range d.SeverityOverrides {
		if o.Location == "" {
			return fmt.Errorf("override %d: location is required", i)
		}
		if !o.Severity.Valid() {
			return fmt.Errorf("override %d: invalid severity %q", i, o.Severity)
		}
	}
	return nil
}
