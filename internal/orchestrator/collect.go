package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
	"github.com/fyrsmithlabs/reviewd/internal/review"
)

// CollectHandler writes each worker disposition into the ledger so
// every dispatched todo ends the phase with a terminal status.
type CollectHandler struct {
	logger *logging.Logger
}

// NewCollectHandler creates the collect phase handler.
func NewCollectHandler(logger *logging.Logger) *CollectHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CollectHandler{logger: logger.Named("collect")}
}

// Phase returns the phase this handler owns.
func (h *CollectHandler) Phase() Phase { return PhaseCollect }

// Execute records one status per result from the last dispatch round.
// Results for already-resolved todos are skipped: collect after an
// empty act round records nothing.
func (h *CollectHandler) Execute(ctx context.Context, session *Session) (PhaseOutput, error) {
	recorded := 0
	for _, result := range lastActResults(session) {
		if len(session.Ledger.History(result.TodoID)) > 0 {
			continue
		}
		explanation := result.Explanation
		if explanation == "" && result.Error != "" {
			explanation = result.Error
		}
		if err := session.Ledger.RecordStatus(result.TodoID, result.Disposition, explanation); err != nil {
			return nil, fmt.Errorf("recording %s: %w", result.TodoID, err)
		}
		recorded++
	}

	h.logger.Info(ctx, "dispositions recorded", zap.Int("recorded", recorded))
	return CollectOutput{Recorded: recorded}, nil
}

// lastActResults returns the results of the most recent act round.
func lastActResults(session *Session) []review.SubagentResult {
	for i := len(session.Outputs) - 1; i >= 0; i-- {
		if out, ok := session.Outputs[i].(ActOutput); ok {
			return out.Results
		}
		if out, ok := session.Outputs[i].(*ActOutput); ok {
			return out.Results
		}
	}
	return nil
}

var _ PhaseHandler = (*CollectHandler)(nil)
