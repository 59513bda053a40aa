package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/canopy-iac/canopy/internal/app"
	"github.com/canopy-iac/canopy/internal/ctxlog"
	"github.com/canopy-iac/canopy/internal/graph"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeNodeFailure indicates at least one node operation failed.
	ExitCodeNodeFailure = 1
	// ExitCodeStructural indicates a graph construction error, a cycle,
	// or invalid usage. Nothing was executed.
	ExitCodeStructural = 2
)

// errNodesFailed signals that the run completed but some nodes failed.
var errNodesFailed = errors.New("one or more nodes failed")

var (
	flagProjectsDir string
	flagLogLevel    string
	flagLogFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Generate and orchestrate infrastructure projects across environments",
	Long: `canopy generates projects from templates and manages their lifecycle
(preview, apply, destroy, refresh) across environments, honoring declared
inter-project dependencies. Operations run over a dependency graph in
ordered levels with bounded parallelism.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger := app.NewLogger(flagLogLevel, flagLogFormat, cmd.ErrOrStderr())
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProjectsDir, "projects-dir", ".", "Directory containing project manifests (.hcl).")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Logging level: debug, info, warn or error.")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log output format: text or json.")
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errNodesFailed) {
			return ExitCodeNodeFailure
		}
		ctxlog.FromContext(ctx).Error("Command failed.", "error", err)
		return ExitCodeStructural
	}
	return ExitCodeSuccess
}

// baseConfig assembles the app configuration shared by all commands.
func baseConfig() (*app.Config, error) {
	return app.NewConfig(app.Config{
		ProjectsPath: flagProjectsDir,
		LogLevel:     flagLogLevel,
		LogFormat:    flagLogFormat,
	})
}

// writeOutput prints content to stdout, or to a file when output is set.
func writeOutput(cmd *cobra.Command, output string, content []byte) error {
	if output == "" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}
	return os.WriteFile(output, content, 0o644)
}

// nodeIDArg turns positional project + environment flag into a NodeID.
func nodeIDArg(project, environment string) graph.NodeID {
	return graph.NodeID{Project: project, Environment: environment}
}
