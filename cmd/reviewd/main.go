// Package main implements the reviewd CLI for running automated
// security reviews.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reviewd/internal/config"
	"github.com/fyrsmithlabs/reviewd/internal/logging"
	"github.com/fyrsmithlabs/reviewd/internal/oracle"
	"github.com/fyrsmithlabs/reviewd/internal/orchestrator"
	"github.com/fyrsmithlabs/reviewd/internal/review"
	"github.com/fyrsmithlabs/reviewd/internal/telemetry"
	"github.com/fyrsmithlabs/reviewd/pkg/skills"
)

var (
	configPath   string
	scope        []string
	instructions string
	jsonOutput   bool

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "reviewd",
	Short:   "Automated security review orchestrator",
	Long:    `reviewd runs an automated security review against a repository, driving planning, delegation, and triage through a decision oracle.`,
	Version: version,
}

var runCmd = &cobra.Command{
	Use:   "run <target>",
	Short: "Run a security review against a target",
	Long: `Run a complete security review against a repository or directory.

Examples:
  # Review a repository
  reviewd run github.com/acme/payments

  # Narrow the review to specific paths
  reviewd run github.com/acme/payments --scope 'internal/...' --scope 'cmd/...'

  # Emit the report as JSON
  reviewd run github.com/acme/payments --json`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	runCmd.Flags().StringArrayVar(&scope, "scope", nil, "path patterns to narrow the review")
	runCmd.Flags().StringVar(&instructions, "instructions", "", "reviewer guidance passed to the oracle")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the report as JSON")
	rootCmd.AddCommand(runCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn(context.Background(), "telemetry shutdown failed", zap.Error(err))
		}
	}()

	client, err := oracle.NewAnthropicClient(cfg.Oracle)
	if err != nil {
		return fmt.Errorf("creating oracle client: %w", err)
	}

	registry, err := buildRegistry(cfg.Skills)
	if err != nil {
		return fmt.Errorf("building skill registry: %w", err)
	}

	engine := orchestrator.BuildEngine(client, registry, cfg, logger)
	session := orchestrator.NewSession(review.Request{
		Target:       args[0],
		Scope:        scope,
		Instructions: instructions,
	})

	if err := engine.Run(ctx, session); err != nil {
		return fmt.Errorf("review run %s: %w", session.RunID, err)
	}

	return printReport(cmd, session.Report)
}

// buildRegistry registers one command skill per configured entry.
func buildRegistry(configs []config.SkillConfig) (*skills.Registry, error) {
	registry := skills.NewRegistry()
	for _, sc := range configs {
		skill, err := skills.NewCommandSkill(sc.Name, sc.Command, sc.Args)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(skill); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func printReport(cmd *cobra.Command, report *review.Report) error {
	if report == nil {
		return fmt.Errorf("run produced no report")
	}
	if jsonOutput {
		data, err := report.JSON()
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Render())
	return nil
}
