package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
	"github.com/fyrsmithlabs/reviewd/internal/oracle"
)

const planInstructions = `Plan the security review as a set of todos. Each todo is one ` +
	`independently resolvable unit of work with a description, a priority ` +
	`(low, medium, high), a risk category, and acceptance criteria. Respond ` +
	`as {"todos": [...]}.`

// PlanHandler asks the oracle for the initial todo set and seeds the
// ledger with it.
type PlanHandler struct {
	oracle oracle.Client
	policy oracle.RetryPolicy
	logger *logging.Logger
}

// NewPlanHandler creates the plan_todos phase handler.
func NewPlanHandler(client oracle.Client, policy oracle.RetryPolicy, logger *logging.Logger) *PlanHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PlanHandler{oracle: client, policy: policy, logger: logger.Named("plan")}
}

// Phase returns the phase this handler owns.
func (h *PlanHandler) Phase() Phase { return PhasePlanTodos }

// Execute creates the run's todos. Creation is all-or-nothing: if any
// todo is rejected the ledger stays empty and the run aborts.
func (h *PlanHandler) Execute(ctx context.Context, session *Session) (PhaseOutput, error) {
	snapshot, err := session.Snapshot()
	if err != nil {
		return nil, err
	}

	decision, err := oracle.PlanTodos(ctx, h.oracle, oracle.Request{
		Phase:        string(PhasePlanTodos),
		Context:      snapshot,
		Instructions: planInstructions,
	}, h.policy)
	if err != nil {
		return nil, err
	}

	todos := decision.Todos
	for i := range todos {
		if todos[i].ID == "" {
			todos[i].ID = "td-" + uuid.New().String()
		}
	}

	if err := session.Ledger.Create(todos); err != nil {
		return nil, fmt.Errorf("seeding ledger: %w", err)
	}

	ids := make([]string, len(todos))
	for i, t := range todos {
		ids[i] = t.ID
	}
	h.logger.Info(ctx, "todos planned", zap.Int("count", len(ids)))
	return PlanOutput{TodoIDs: ids}, nil
}

var _ PhaseHandler = (*PlanHandler)(nil)
