package review

import (
	"fmt"
	"time"
)

// Severity ranks how serious a finding is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for comparison. Unknown values rank lowest.
var severityRank = map[Severity]int{
	SeverityInfo:     1,
	SeverityLow:      2,
	SeverityMedium:   3,
	SeverityHigh:     4,
	SeverityCritical: 5,
}

// Rank returns the ordering weight of the severity, 0 for unknown values.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Valid reports whether the severity is a known value.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Priority orders todos by urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityRank = map[Priority]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
}

// Rank returns the ordering weight of the priority, 0 for unknown values.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Valid reports whether the priority is a known value.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// RiskCategory classifies the security concern a todo or finding targets.
type RiskCategory string

const (
	RiskInjection     RiskCategory = "injection"
	RiskAuth          RiskCategory = "auth"
	RiskCrypto        RiskCategory = "crypto"
	RiskSecrets       RiskCategory = "secrets"
	RiskConfig        RiskCategory = "config"
	RiskSupplyChain   RiskCategory = "supply_chain"
	RiskDataExposure  RiskCategory = "data_exposure"
	RiskMemorySafety  RiskCategory = "memory_safety"
	RiskOther         RiskCategory = "other"
)

var validRisk = map[RiskCategory]bool{
	RiskInjection:    true,
	RiskAuth:         true,
	RiskCrypto:       true,
	RiskSecrets:      true,
	RiskConfig:       true,
	RiskSupplyChain:  true,
	RiskDataExposure: true,
	RiskMemorySafety: true,
	RiskOther:        true,
}

// Valid reports whether the risk category is a known value.
func (r RiskCategory) Valid() bool {
	return validRisk[r]
}

// Status is the terminal disposition of a todo.
type Status string

const (
	StatusDone     Status = "done"
	StatusBlocked  Status = "blocked"
	StatusDeferred Status = "deferred"
)

// Valid reports whether the status is a known terminal disposition.
func (s Status) Valid() bool {
	switch s {
	case StatusDone, StatusBlocked, StatusDeferred:
		return true
	}
	return false
}

// Todo is one unit of review work, created during planning. The struct
// itself is immutable after creation; resolution is recorded out-of-band
// as TodoStatus entries in the Ledger.
type Todo struct {
	ID                 string       `json:"id"`
	Description        string       `json:"description"`
	Priority           Priority     `json:"priority"`
	Risk               RiskCategory `json:"risk"`
	AcceptanceCriteria []string     `json:"acceptance_criteria,omitempty"`
	EvidenceRequired   bool         `json:"evidence_required"`
}

// Validate checks the todo for contract errors.
func (t Todo) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("todo id is required")
	}
	if t.Description == "" {
		return fmt.Errorf("todo %s: description is required", t.ID)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("todo %s: invalid priority %q", t.ID, t.Priority)
	}
	if !t.Risk.Valid() {
		return fmt.Errorf("todo %s: invalid risk category %q", t.ID, t.Risk)
	}
	return nil
}

// TodoStatus records one resolution event for a todo. History is
// append-only; a todo revisited later gets a new entry.
type TodoStatus struct {
	TodoID      string    `json:"todo_id"`
	Status      Status    `json:"status"`
	Explanation string    `json:"explanation"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Finding is a discrete security observation. Immutable once emitted;
// findings accumulate monotonically until the terminal report.
type Finding struct {
	Category    RiskCategory `json:"category"`
	Severity    Severity     `json:"severity"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
	Evidence    []string     `json:"evidence,omitempty"`

	// TodoID traces the finding back to the delegation that produced it.
	TodoID string `json:"todo_id,omitempty"`
}

// SubagentResult is the outcome of one delegated execution. Appended to
// the session's accumulated results and never mutated after creation.
type SubagentResult struct {
	TodoID     string        `json:"todo_id"`
	Capability string        `json:"capability,omitempty"`
	Success    bool          `json:"success"`
	Findings   []Finding     `json:"findings,omitempty"`
	Error      string        `json:"error,omitempty"`

	// Disposition is the terminal status the dispatcher assigned the
	// todo: done on success, blocked or deferred per oracle/worker
	// signal on failure.
	Disposition Status        `json:"disposition"`
	Explanation string        `json:"explanation,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// Request is the normalized review request a run operates on.
type Request struct {
	// Target is the repository or directory under review.
	Target string `json:"target"`

	// Scope optionally narrows the review to path patterns.
	Scope []string `json:"scope,omitempty"`

	// Instructions carries reviewer guidance verbatim to the oracle.
	Instructions string `json:"instructions,omitempty"`
}
