package orchestrator

import (
	"github.com/fyrsmithlabs/reviewd/internal/config"
	"github.com/fyrsmithlabs/reviewd/internal/logging"
	"github.com/fyrsmithlabs/reviewd/internal/oracle"
	"github.com/fyrsmithlabs/reviewd/pkg/skills"
)

// BuildEngine wires the standard handler set for a review run: the
// oracle-backed planner and evaluator, the bounded dispatcher, and the
// bookkeeping phases between them.
func BuildEngine(client oracle.Client, registry *skills.Registry, cfg *config.Config, logger *logging.Logger) *Engine {
	policy := oracle.PolicyFromConfig(cfg.Oracle)
	dispatcher := NewDispatcher(
		client,
		registry,
		logger,
		cfg.Orchestrator.MaxWorkers,
		cfg.Orchestrator.DelegationTimeout.Duration(),
	)

	engine := NewEngine(logger)
	engine.RegisterHandler(NewIntakeHandler(logger))
	engine.RegisterHandler(NewPlanHandler(client, policy, logger))
	engine.RegisterHandler(NewActHandler(dispatcher, logger))
	engine.RegisterHandler(NewCollectHandler(logger))
	engine.RegisterHandler(NewConsolidateHandler(logger))
	engine.RegisterHandler(NewEvaluateHandler(client, policy, logger))
	return engine
}
