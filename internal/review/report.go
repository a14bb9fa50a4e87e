package review

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Report is the single externally consumable artifact of a review run:
// the deduplicated findings plus a resolution summary for every todo
// ever created.
type Report struct {
	Target      string       `json:"target"`
	Accepted    bool         `json:"accepted"`
	Summary     string       `json:"summary,omitempty"`
	Findings    []Finding    `json:"findings"`
	Resolutions []TodoStatus `json:"resolutions"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// BuildReport assembles the terminal report from the session's
// consolidated findings and the ledger's resolution history.
func BuildReport(target string, ledger *Ledger, findings []Finding, summary string, accepted bool) *Report {
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	SortFindings(sorted)

	return &Report{
		Target:      target,
		Accepted:    accepted,
		Summary:     summary,
		Findings:    sorted,
		Resolutions: ledger.Resolutions(),
		GeneratedAt: time.Now().UTC(),
	}
}

// SeverityCounts tallies findings per severity.
func (r *Report) SeverityCounts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Render produces a human-readable summary.
func (r *Report) Render() string {
	var b strings.Builder

	verdict := "NOT ACCEPTED"
	if r.Accepted {
		verdict = "ACCEPTED"
	}
	fmt.Fprintf(&b, "Security review: %s (%s)\n", r.Target, verdict)
	if r.Summary != "" {
		fmt.Fprintf(&b, "%s\n", r.Summary)
	}

	counts := r.SeverityCounts()
	fmt.Fprintf(&b, "\nFindings: %d total", len(r.Findings))
	for _, sev := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo} {
		if n := counts[sev]; n > 0 {
			fmt.Fprintf(&b, ", %d %s", n, sev)
		}
	}
	b.WriteString("\n")

	for _, f := range r.Findings {
		fmt.Fprintf(&b, "  [%s] %s: %s (%s)\n", f.Severity, f.Location, f.Description, f.Category)
	}

	fmt.Fprintf(&b, "\nTodo resolution (%d):\n", len(r.Resolutions))
	for _, s := range r.Resolutions {
		fmt.Fprintf(&b, "  %s -> %s", s.TodoID, s.Status)
		if s.Explanation != "" {
			fmt.Fprintf(&b, ": %s", s.Explanation)
		}
		b.WriteString("\n")
	}

	return b.String()
}
