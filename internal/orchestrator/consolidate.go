package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
	"github.com/fyrsmithlabs/reviewd/internal/review"
)

// ConsolidateHandler merges every finding accumulated so far into one
// deduplicated set. Merging is idempotent: re-running it over already
// consolidated findings changes nothing.
type ConsolidateHandler struct {
	logger *logging.Logger
}

// NewConsolidateHandler creates the consolidate phase handler.
func NewConsolidateHandler(logger *logging.Logger) *ConsolidateHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ConsolidateHandler{logger: logger.Named("consolidate")}
}

// Phase returns the phase this handler owns.
func (h *ConsolidateHandler) Phase() Phase { return PhaseConsolidate }

// Execute rebuilds session.Findings from prior consolidations plus
// every worker result.
func (h *ConsolidateHandler) Execute(ctx context.Context, session *Session) (PhaseOutput, error) {
	all := make([]review.Finding, 0, len(session.Findings))
	all = append(all, session.Findings...)
	for _, result := range session.Results {
		all = append(all, result.Findings...)
	}

	merged := review.MergeFindings(all)
	session.Findings = merged

	h.logger.Info(ctx, "findings consolidated",
		zap.Int("raw", len(all)),
		zap.Int("merged", len(merged)),
	)
	return ConsolidateOutput{Findings: len(merged)}, nil
}

var _ PhaseHandler = (*ConsolidateHandler)(nil)
