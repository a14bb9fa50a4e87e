package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
	"github.com/fyrsmithlabs/reviewd/internal/oracle"
	"github.com/fyrsmithlabs/reviewd/internal/review"
)

const evaluateInstructions = `Triage the consolidated findings against the review ` +
	`request. Adjust finding severities where the evidence warrants it and ` +
	`decide whether the target is acceptable. Respond as {"accept": bool, ` +
	`"summary": "...", "severity_overrides": [...]}.`

// EvaluateHandler asks the oracle for the final triage, applies its
// severity overrides, and builds the terminal report.
type EvaluateHandler struct {
	oracle oracle.Client
	policy oracle.RetryPolicy
	logger *logging.Logger
}

// NewEvaluateHandler creates the evaluate phase handler.
func NewEvaluateHandler(client oracle.Client, policy oracle.RetryPolicy, logger *logging.Logger) *EvaluateHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EvaluateHandler{oracle: client, policy: policy, logger: logger.Named("evaluate")}
}

// Phase returns the phase this handler owns.
func (h *EvaluateHandler) Phase() Phase { return PhaseEvaluate }

// Execute produces the run's verdict and report.
func (h *EvaluateHandler) Execute(ctx context.Context, session *Session) (PhaseOutput, error) {
	snapshot, err := session.Snapshot()
	if err != nil {
		return nil, err
	}

	decision, err := oracle.Evaluate(ctx, h.oracle, oracle.Request{
		Phase:        string(PhaseEvaluate),
		Context:      snapshot,
		Instructions: evaluateInstructions,
	}, h.policy)
	if err != nil {
		return nil, err
	}

	applyOverrides(session.Findings, decision.SeverityOverrides)
	session.Report = review.BuildReport(
		session.Request.Target,
		session.Ledger,
		session.Findings,
		decision.Summary,
		decision.Accept,
	)

	h.logger.Info(ctx, "evaluation complete",
		zap.Bool("accepted", decision.Accept),
		zap.Int("overrides", len(decision.SeverityOverrides)),
	)
	return EvaluateOutput{Accepted: decision.Accept, Summary: decision.Summary}, nil
}

// applyOverrides retargets severities in place. Overrides that match
// no finding are ignored; the oracle sees a snapshot, not a lock.
func applyOverrides(findings []review.Finding, overrides []oracle.SeverityOverride) {
	for _, o := range overrides {
		for i := range findings {
			if findings[i].Location == o.Location && findings[i].Category == o.Category {
				findings[i].Severity = o.Severity
			}
		}
	}
}

var _ PhaseHandler = (*EvaluateHandler)(nil)
