package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
)

// IntakeHandler validates and normalizes the review request.
type IntakeHandler struct {
	logger *logging.Logger
}

// NewIntakeHandler creates the intake phase handler.
func NewIntakeHandler(logger *logging.Logger) *IntakeHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &IntakeHandler{logger: logger.Named("intake")}
}

// Phase returns the phase this handler owns.
func (h *IntakeHandler) Phase() Phase { return PhaseIntake }

// Execute normalizes the request in place. An empty target is a bad
// request and aborts the run before any oracle call is spent.
func (h *IntakeHandler) Execute(ctx context.Context, session *Session) (PhaseOutput, error) {
	req := session.Request
	req.Target = strings.TrimSpace(req.Target)
	req.Instructions = strings.TrimSpace(req.Instructions)

	if req.Target == "" {
		return nil, fmt.Errorf("review request has no target")
	}

	scope := make([]string, 0, len(req.Scope))
	for _, pattern := range req.Scope {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			scope = append(scope, pattern)
		}
	}
	req.Scope = scope

	session.Request = req
	h.logger.Info(ctx, "request accepted",
		zap.String("target", req.Target),
		zap.Int("scope_patterns", len(req.Scope)),
	)
	return IntakeOutput{Request: req}, nil
}

var _ PhaseHandler = (*IntakeHandler)(nil)
