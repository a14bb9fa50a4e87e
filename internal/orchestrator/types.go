package orchestrator

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/reviewd/internal/review"
)

// Phase represents a distinct execution phase of a review run.
type Phase string

const (
	// PhaseIntake validates and normalizes the review request.
	PhaseIntake Phase = "intake"

	// PhasePlanTodos asks the oracle for the initial todo set.
	PhasePlanTodos Phase = "plan_todos"

	// PhaseAct dispatches pending todos to workers.
	PhaseAct Phase = "act"

	// PhaseCollect records worker dispositions in the ledger.
	PhaseCollect Phase = "collect"

	// PhaseConsolidate merges accumulated findings.
	PhaseConsolidate Phase = "consolidate"

	// PhaseEvaluate triages findings and produces the terminal verdict.
	PhaseEvaluate Phase = "evaluate"

	// PhaseDone is the terminal phase; it has no handler.
	PhaseDone Phase = "done"
)

// AllPhases returns the executable phases in run order, excluding the
// terminal done phase.
func AllPhases() []Phase {
	return []Phase{PhaseIntake, PhasePlanTodos, PhaseAct, PhaseCollect, PhaseConsolidate, PhaseEvaluate}
}

// transitions is the authoritative table of legal phase successions.
var transitions = map[Phase]Phase{
	PhaseIntake:      PhasePlanTodos,
	PhasePlanTodos:   PhaseAct,
	PhaseAct:         PhaseCollect,
	PhaseCollect:     PhaseConsolidate,
	PhaseConsolidate: PhaseEvaluate,
	PhaseEvaluate:    PhaseDone,
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	if p == PhaseDone {
		return true
	}
	_, ok := transitions[p]
	return ok
}

// Next returns the sole legal successor of p. The terminal phase has
// no successor.
func (p Phase) Next() (Phase, bool) {
	next, ok := transitions[p]
	return next, ok
}

// ContractViolationError is returned when a phase handler requests a
// transition the table does not permit. It is fatal: the handler broke
// its contract, so the run state can no longer be trusted.
type ContractViolationError struct {
	From      Phase
	Requested Phase
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("phase contract violation: %s requested transition to %s", e.From, e.Requested)
}

// PhaseOutput is the typed result of one phase execution. NextPhase is
// the handler's transition request; the engine validates it against
// the transition table before honoring it.
type PhaseOutput interface {
	Phase() Phase
	NextPhase() Phase
}

// IntakeOutput is the normalized request.
type IntakeOutput struct {
	Request review.Request `json:"request"`
}

func (IntakeOutput) Phase() Phase     { return PhaseIntake }
func (IntakeOutput) NextPhase() Phase { return PhasePlanTodos }

// PlanOutput records the todos the planning phase created.
type PlanOutput struct {
	TodoIDs []string `json:"todo_ids"`
}

func (PlanOutput) Phase() Phase     { return PhasePlanTodos }
func (PlanOutput) NextPhase() Phase { return PhaseAct }

// ActOutput records the worker results of one dispatch round.
type ActOutput struct {
	Results []review.SubagentResult `json:"results"`
}

func (ActOutput) Phase() Phase     { return PhaseAct }
func (ActOutput) NextPhase() Phase { return PhaseCollect }

// CollectOutput records how many dispositions the collect phase wrote
// to the ledger.
type CollectOutput struct {
	Recorded int `json:"recorded"`
}

func (CollectOutput) Phase() Phase     { return PhaseCollect }
func (CollectOutput) NextPhase() Phase { return PhaseConsolidate }

// ConsolidateOutput records the deduplicated finding set.
type ConsolidateOutput struct {
	Findings int `json:"findings"`
}

func (ConsolidateOutput) Phase() Phase     { return PhaseConsolidate }
func (ConsolidateOutput) NextPhase() Phase { return PhaseEvaluate }

// EvaluateOutput carries the terminal verdict.
type EvaluateOutput struct {
	Accepted bool   `json:"accepted"`
	Summary  string `json:"summary"`
}

func (EvaluateOutput) Phase() Phase     { return PhaseEvaluate }
func (EvaluateOutput) NextPhase() Phase { return PhaseDone }

// PhaseHandler executes the work of a single phase against the session.
type PhaseHandler interface {
	// Phase returns the phase this handler owns.
	Phase() Phase

	// Execute runs the phase. A returned error aborts the run; failures
	// recoverable within the phase (worker crashes, single oracle call
	// failures during dispatch) must be absorbed here, not returned.
	Execute(ctx context.Context, session *Session) (PhaseOutput, error)
}
