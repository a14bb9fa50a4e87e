package orchestrator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/reviewd/internal/review"
)

// Session is the complete mutable state of one review run. Exactly one
// phase handler touches it at a time; the dispatcher's workers never
// see it.
type Session struct {
	// RunID identifies the run in logs and traces.
	RunID string

	// Request is the review request the run operates on.
	Request review.Request

	// Phase is the phase the run is currently in.
	Phase Phase

	// Outputs holds every phase output in execution order.
	Outputs []PhaseOutput

	// Ledger tracks todos and their resolution history.
	Ledger *review.Ledger

	// Results accumulates worker results across dispatch rounds.
	Results []review.SubagentResult

	// Findings is the consolidated finding set. Empty until the
	// consolidate phase runs.
	Findings []review.Finding

	// Report is the terminal report. Nil until the evaluate phase runs.
	Report *review.Report

	// StartedAt is when the run began.
	StartedAt time.Time
}

// NewSession creates a session in the intake phase.
func NewSession(req review.Request) *Session {
	return &Session{
		RunID:     uuid.New().String(),
		Request:   req,
		Phase:     PhaseIntake,
		Ledger:    review.NewLedger(),
		StartedAt: time.Now().UTC(),
	}
}

// Done reports whether the run reached its terminal phase.
func (s *Session) Done() bool {
	return s.Phase == PhaseDone
}

// Output returns the recorded output for a phase, or nil if that phase
// has not executed.
func (s *Session) Output(phase Phase) PhaseOutput {
	for _, out := range s.Outputs {
		if out.Phase() == phase {
			return out
		}
	}
	return nil
}

// snapshotView is the read-only session projection handed to the
// oracle as decision context.
type snapshotView struct {
	RunID       string                  `json:"run_id"`
	Phase       Phase                   `json:"phase"`
	Request     review.Request          `json:"request"`
	Todos       []review.Todo           `json:"todos,omitempty"`
	Resolutions []review.TodoStatus     `json:"resolutions,omitempty"`
	Results     []review.SubagentResult `json:"results,omitempty"`
	Findings    []review.Finding        `json:"findings,omitempty"`
}

// Snapshot serializes the session's decision-relevant state. The
// returned bytes are a copy; mutating the session afterwards does not
// affect them.
func (s *Session) Snapshot() (json.RawMessage, error) {
	view := snapshotView{
		RunID:       s.RunID,
		Phase:       s.Phase,
		Request:     s.Request,
		Todos:       s.Ledger.Todos(),
		Resolutions: s.Ledger.Resolutions(),
		Results:     s.Results,
		Findings:    s.Findings,
	}
	data, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("snapshotting session: %w", err)
	}
	return data, nil
}

// phaseRecord is the serialized envelope for one phase output.
type phaseRecord struct {
	Phase   Phase           `json:"phase"`
	Payload json.RawMessage `json:"payload"`
}

// sessionState is the serialized form of a session.
type sessionState struct {
	RunID    string                  `json:"run_id"`
	Request  review.Request          `json:"request"`
	Phase    Phase                   `json:"phase"`
	Outputs  []phaseRecord           `json:"outputs,omitempty"`
	Ledger   *review.Ledger          `json:"ledger"`
	Results  []review.SubagentResult `json:"results,omitempty"`
	Findings []review.Finding        `json:"findings,omitempty"`
	Report   *review.Report          `json:"report,omitempty"`
	Started  time.Time               `json:"started_at"`
}

// MarshalJSON serializes the session, including typed phase outputs.
func (s *Session) MarshalJSON() ([]byte, error) {
	state := sessionState{
		RunID:    s.RunID,
		Request:  s.Request,
		Phase:    s.Phase,
		Ledger:   s.Ledger,
		Results:  s.Results,
		Findings: s.Findings,
		Report:   s.Report,
		Started:  s.StartedAt,
	}
	for _, out := range s.Outputs {
		payload, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encoding %s output: %w", out.Phase(), err)
		}
		state.Outputs = append(state.Outputs, phaseRecord{Phase: out.Phase(), Payload: payload})
	}
	return json.Marshal(state)
}

// UnmarshalJSON restores a session, rebuilding typed phase outputs
// from their envelopes.
func (s *Session) UnmarshalJSON(data []byte) error {
	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	outputs := make([]PhaseOutput, 0, len(state.Outputs))
	for _, rec := range state.Outputs {
		out, err := decodeOutput(rec)
		if err != nil {
			return err
		}
		outputs = append(outputs, out)
	}

	s.RunID = state.RunID
	s.Request = state.Request
	s.Phase = state.Phase
	s.Outputs = outputs
	s.Ledger = state.Ledger
	if s.Ledger == nil {
		s.Ledger = review.NewLedger()
	}
	s.Results = state.Results
	s.Findings = state.Findings
	s.Report = state.Report
	s.StartedAt = state.Started
	return nil
}

func decodeOutput(rec phaseRecord) (PhaseOutput, error) {
	var out PhaseOutput
	switch rec.Phase {
	case PhaseIntake:
		out = &IntakeOutput{}
	case PhasePlanTodos:
		out = &PlanOutput{}
	case PhaseAct:
		out = &ActOutput{}
	case PhaseCollect:
		out = &CollectOutput{}
	case PhaseConsolidate:
		out = &ConsolidateOutput{}
	case PhaseEvaluate:
		out = &EvaluateOutput{}
	default:
		return nil, fmt.Errorf("unknown phase output %q", rec.Phase)
	}
	if err := json.Unmarshal(rec.Payload, out); err != nil {
		return nil, fmt.Errorf("decoding %s output: %w", rec.Phase, err)
	}
	return out, nil
}
