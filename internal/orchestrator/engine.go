package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
)

var tracer = otel.Tracer("reviewd.orchestrator")

// Progress reports one phase transition to an observer.
type Progress struct {
	RunID string `json:"run_id"`
	From  Phase  `json:"from"`
	To    Phase  `json:"to"`
}

// ProgressCallback receives progress updates during a run.
type ProgressCallback func(progress Progress)

// Engine executes review runs phase by phase.
type Engine struct {
	handlers   map[Phase]PhaseHandler
	logger     *logging.Logger
	onProgress ProgressCallback
}

// NewEngine creates an engine with no handlers registered.
func NewEngine(logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		handlers: make(map[Phase]PhaseHandler),
		logger:   logger.Named("engine"),
	}
}

// RegisterHandler installs the handler for its phase, replacing any
// previous registration.
func (e *Engine) RegisterHandler(handler PhaseHandler) {
	e.handlers[handler.Phase()] = handler
}

// OnProgress sets the progress callback.
func (e *Engine) OnProgress(callback ProgressCallback) {
	e.onProgress = callback
}

// Advance executes the session's current phase and moves to the phase
// its output requests. Handler errors and contract violations abort
// without mutating the session's phase.
func (e *Engine) Advance(ctx context.Context, session *Session) error {
	if session.Done() {
		return fmt.Errorf("run %s is already complete", session.RunID)
	}

	from := session.Phase
	ctx = logging.WithRunID(ctx, session.RunID)
	ctx = logging.WithPhase(ctx, string(from))

	ctx, span := tracer.Start(ctx, "orchestrator.phase")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", session.RunID),
		attribute.String("run.phase", string(from)),
	)

	handler, ok := e.handlers[from]
	if !ok {
		return fmt.Errorf("no handler registered for phase %s", from)
	}

	e.logger.Debug(ctx, "executing phase")
	output, err := handler.Execute(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error(ctx, "phase failed", zap.Error(err))
		return fmt.Errorf("phase %s: %w", from, err)
	}

	if output.Phase() != from {
		err := &ContractViolationError{From: from, Requested: output.Phase()}
		span.RecordError(err)
		return err
	}
	requested := output.NextPhase()
	if legal, _ := from.Next(); requested != legal {
		err := &ContractViolationError{From: from, Requested: requested}
		span.RecordError(err)
		e.logger.Error(ctx, "illegal transition requested",
			zap.String("requested_phase", string(requested)))
		return err
	}

	session.Outputs = append(session.Outputs, output)
	session.Phase = requested

	e.logger.Info(ctx, "phase complete", zap.String("next_phase", string(requested)))
	if e.onProgress != nil {
		e.onProgress(Progress{RunID: session.RunID, From: from, To: requested})
	}
	return nil
}

// Run advances the session until it reaches the terminal phase or a
// phase aborts. There is no retry here: by the time an error escapes a
// handler the run is over.
func (e *Engine) Run(ctx context.Context, session *Session) error {
	for !session.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Advance(ctx, session); err != nil {
			return err
		}
	}

	ctx = logging.WithRunID(ctx, session.RunID)
	e.logger.Info(ctx, "run complete",
		zap.Int("todos", session.Ledger.Len()),
		zap.Int("findings", len(session.Findings)),
		zap.Bool("accepted", session.Report != nil && session.Report.Accepted),
	)
	return nil
}
