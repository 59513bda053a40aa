package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canopy-iac/canopy/internal/app"
	"github.com/canopy-iac/canopy/internal/ctxlog"
	"github.com/canopy-iac/canopy/internal/executor"
	"github.com/canopy-iac/canopy/internal/graph"
	"github.com/canopy-iac/canopy/internal/manifest"
	"github.com/canopy-iac/canopy/internal/scheduler"
)

var (
	flagProjectEnv       string
	flagProjectAll       bool
	flagProjectParallel  int
	flagProjectOnFailure string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage project lifecycle across environments",
}

func init() {
	projectCmd.PersistentFlags().StringVarP(&flagProjectEnv, "environment", "e", "default", "Environment to operate on.")
	projectCmd.PersistentFlags().BoolVar(&flagProjectAll, "all", false, "Operate on every discovered project/environment pair.")
	projectCmd.PersistentFlags().IntVarP(&flagProjectParallel, "parallel", "p", 1, "Max concurrent operations within a level.")
	projectCmd.PersistentFlags().StringVar(&flagProjectOnFailure, "on-failure", "continue", "Failure policy: stop, continue or finish-level.")

	for _, op := range []executor.Operation{executor.OpApply, executor.OpDestroy, executor.OpPreview, executor.OpRefresh} {
		projectCmd.AddCommand(newOperationCmd(op))
	}
	rootCmd.AddCommand(projectCmd)
}

func newOperationCmd(op executor.Operation) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s [project]", op),
		Short: fmt.Sprintf("Run %s across the dependency graph", op),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, op, args)
		},
	}
}

func runOperation(cmd *cobra.Command, op executor.Operation, args []string) error {
	ctx := cmd.Context()
	logger := ctxlog.FromContext(ctx)

	if !flagProjectAll && len(args) == 0 {
		return fmt.Errorf("a project argument is required unless --all is given")
	}

	cfg, err := app.NewConfig(app.Config{
		ProjectsPath: flagProjectsDir,
		LogLevel:     flagLogLevel,
		LogFormat:    flagLogFormat,
		Parallel:     flagProjectParallel,
		OnFailure:    flagProjectOnFailure,
	})
	if err != nil {
		return err
	}
	policy, err := cfg.FailurePolicy()
	if err != nil {
		return err
	}

	universe, err := manifest.Load(ctx, cfg.ProjectsPath)
	if err != nil {
		return err
	}

	var g *graph.Graph
	if flagProjectAll {
		g, err = graph.BuildAll(ctx, universe)
	} else {
		g, err = graph.Build(ctx, universe, nodeIDArg(args[0], flagProjectEnv))
	}
	if err != nil {
		return err
	}

	levels, err := graph.AssignLevels(g)
	if err != nil {
		return err
	}

	logger.Info("Starting run.",
		"operation", string(op),
		"nodes", g.Len(),
		"levels", len(levels),
		"parallel", cfg.Parallel,
		"on_failure", cfg.OnFailure,
	)

	tofu := executor.NewOpenTofu(cmd.OutOrStdout(), cmd.ErrOrStderr())
	outcomes := scheduler.Execute(ctx, g, levels, executor.Bind(tofu, op), scheduler.Options{
		Direction:   op.Direction(),
		MaxParallel: cfg.Parallel,
		OnFailure:   policy,
	})

	return reportOutcomes(cmd, outcomes)
}

// reportOutcomes prints the per-node results in their deterministic order
// and returns errNodesFailed if any node failed.
func reportOutcomes(cmd *cobra.Command, outcomes []scheduler.Outcome) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, o := range outcomes {
		line := fmt.Sprintf("%-10s %s", strings.ToUpper(o.Status.String()), o.ID)
		if o.Err != nil {
			line += ": " + o.Err.Error()
		}
		fmt.Fprintln(out, line)
		if o.Status == scheduler.Failed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w (%d of %d)", errNodesFailed, failed, len(outcomes))
	}
	return nil
}
