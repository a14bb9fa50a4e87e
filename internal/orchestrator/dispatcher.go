package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
	"github.com/fyrsmithlabs/reviewd/internal/oracle"
	"github.com/fyrsmithlabs/reviewd/internal/review"
	"github.com/fyrsmithlabs/reviewd/pkg/skills"
)

// Dispatcher fans pending todos out to workers. Fan-out is bounded by
// MaxWorkers; results flow through a single collector so no worker
// ever touches shared state. A failed unit of work degrades to a
// failed result and never aborts the round.
type Dispatcher struct {
	oracle   oracle.Client
	registry *skills.Registry
	logger   *logging.Logger

	maxWorkers int
	timeout    time.Duration
}

// NewDispatcher builds a dispatcher. maxWorkers and timeout must be
// positive; config validation enforces that upstream.
func NewDispatcher(client oracle.Client, registry *skills.Registry, logger *logging.Logger, maxWorkers int, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Dispatcher{
		oracle:     client,
		registry:   registry,
		logger:     logger.Named("dispatcher"),
		maxWorkers: maxWorkers,
		timeout:    timeout,
	}
}

// indexedResult carries a worker result back to the collector with its
// position in the original todo order.
type indexedResult struct {
	index  int
	result review.SubagentResult
}

// Dispatch resolves every todo in the batch and returns exactly one
// result per todo, in batch order. Cancellation of ctx stops new
// dispatches; todos never started come back failed.
func (d *Dispatcher) Dispatch(ctx context.Context, snapshot json.RawMessage, todos []review.Todo) []review.SubagentResult {
	if len(todos) == 0 {
		return nil
	}

	results := make(chan indexedResult, len(todos))

	var g errgroup.Group
	g.SetLimit(d.maxWorkers)
	for i, todo := range todos {
		g.Go(func() error {
			results <- indexedResult{index: i, result: d.resolve(ctx, snapshot, todo)}
			return nil
		})
	}

	// Single collector; workers only ever write to the channel.
	collected := make([]review.SubagentResult, len(todos))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			collected[r.index] = r.result
		}
	}()

	_ = g.Wait()
	close(results)
	<-done

	return collected
}

// resolve handles one todo: ask the oracle how to dispatch it, then
// either record its inline resolution or run the named worker.
func (d *Dispatcher) resolve(ctx context.Context, snapshot json.RawMessage, todo review.Todo) review.SubagentResult {
	ctx = logging.WithTodoID(ctx, todo.ID)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return failedResult(todo.ID, "", fmt.Errorf("dispatch cancelled: %w", err), time.Since(start))
	}

	decision, err := d.delegationFor(ctx, snapshot, todo)
	if err != nil {
		d.logger.Warn(ctx, "delegation decision failed", zap.Error(err))
		return failedResult(todo.ID, "", err, time.Since(start))
	}

	if !decision.Delegate {
		res := decision.Resolution
		d.logger.Info(ctx, "todo resolved inline", zap.String("status", string(res.Status)))
		return review.SubagentResult{
			TodoID:      todo.ID,
			Success:     true,
			Findings:    res.Findings,
			Disposition: res.Status,
			Explanation: res.Explanation,
			Duration:    time.Since(start),
		}
	}

	return d.execute(ctx, todo, decision, start)
}

func (d *Dispatcher) delegationFor(ctx context.Context, snapshot json.RawMessage, todo review.Todo) (*oracle.DelegationDecision, error) {
	todoJSON, err := json.Marshal(todo)
	if err != nil {
		return nil, fmt.Errorf("encoding todo: %w", err)
	}

	req := oracle.Request{
		Phase:        string(PhaseAct),
		Context:      snapshot,
		Instructions: fmt.Sprintf("Decide how to resolve this todo: %s", todoJSON),
	}
	// One attempt only: a failed decision degrades to a failed result
	// rather than consuming the phase's retry budget.
	return oracle.PlanDelegation(ctx, d.oracle, req, oracle.SingleAttempt())
}

func (d *Dispatcher) execute(ctx context.Context, todo review.Todo, decision *oracle.DelegationDecision, start time.Time) review.SubagentResult {
	skill, err := d.registry.Resolve(decision.Capability)
	if err != nil {
		d.logger.Warn(ctx, "unknown capability", zap.String("capability", decision.Capability))
		return failedResult(todo.ID, decision.Capability, err, time.Since(start))
	}

	task := skills.Task{
		TodoID:             todo.ID,
		Description:        todo.Description,
		Framing:            decision.Task,
		AcceptanceCriteria: joinCriteria(todo.AcceptanceCriteria),
	}

	execCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := skill.Execute(execCtx, task)
	elapsed := time.Since(start)
	if err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("delegation timed out after %s: %w", d.timeout, err)
		}
		d.logger.Warn(ctx, "worker failed",
			zap.String("capability", decision.Capability),
			zap.Error(err),
		)
		return failedResult(todo.ID, decision.Capability, err, elapsed)
	}

	d.logger.Info(ctx, "worker succeeded",
		zap.String("capability", decision.Capability),
		zap.Int("findings", len(result.Findings)),
		zap.Duration("duration", elapsed),
	)
	return review.SubagentResult{
		TodoID:      todo.ID,
		Capability:  decision.Capability,
		Success:     true,
		Findings:    tagFindings(result.Findings, todo.ID),
		Disposition: review.StatusDone,
		Explanation: result.Output,
		Duration:    elapsed,
	}
}

// failedResult builds the degraded result for a unit that could not
// complete. The todo stays actionable: blocked, never lost.
func failedResult(todoID, capability string, err error, elapsed time.Duration) review.SubagentResult {
	return review.SubagentResult{
		TodoID:      todoID,
		Capability:  capability,
		Success:     false,
		Error:       err.Error(),
		Disposition: review.StatusBlocked,
		Explanation: "worker did not complete",
		Duration:    elapsed,
	}
}

// tagFindings stamps the originating todo on findings the worker left
// untagged.
func tagFindings(findings []review.Finding, todoID string) []review.Finding {
	for i := range findings {
		if findings[i].TodoID == "" {
			findings[i].TodoID = todoID
		}
	}
	return findings
}

func joinCriteria(criteria []string) string {
	switch len(criteria) {
	case 0:
		return ""
	case 1:
		return criteria[0]
	}
	out := criteria[0]
	for _, c := range criteria[1:] {
		out += "; " + c
	}
	return out
}
