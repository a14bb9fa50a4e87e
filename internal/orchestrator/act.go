package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
)

// ActHandler dispatches every pending todo through the dispatcher and
// accumulates the results on the session.
type ActHandler struct {
	dispatcher *Dispatcher
	logger     *logging.Logger
}

// NewActHandler creates the act phase handler.
func NewActHandler(dispatcher *Dispatcher, logger *logging.Logger) *ActHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ActHandler{dispatcher: dispatcher, logger: logger.Named("act")}
}

// Phase returns the phase this handler owns.
func (h *ActHandler) Phase() Phase { return PhaseAct }

// Execute dispatches pending todos. A round with nothing pending is
// valid and moves on with an empty result set.
func (h *ActHandler) Execute(ctx context.Context, session *Session) (PhaseOutput, error) {
	pending := session.Ledger.Pending()
	if len(pending) == 0 {
		h.logger.Info(ctx, "nothing to dispatch")
		return ActOutput{}, nil
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		return nil, err
	}

	results := h.dispatcher.Dispatch(ctx, snapshot, pending)
	session.Results = append(session.Results, results...)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	h.logger.Info(ctx, "dispatch round complete",
		zap.Int("dispatched", len(results)),
		zap.Int("failed", failed),
	)
	return ActOutput{Results: results}, nil
}

var _ PhaseHandler = (*ActHandler)(nil)
