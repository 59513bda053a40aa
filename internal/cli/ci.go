package cli

import (
	"github.com/spf13/cobra"

	"github.com/canopy-iac/canopy/internal/ci"
	"github.com/canopy-iac/canopy/internal/executor"
	"github.com/canopy-iac/canopy/internal/graph"
	"github.com/canopy-iac/canopy/internal/manifest"
)

var (
	flagCIOperation string
	flagCIOutput    string
)

var ciCmd = &cobra.Command{
	Use:   "ci",
	Short: "Generate CI pipeline definitions",
}

var ciGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a pipeline from the dependency graph",
	Long: `Generate a CI pipeline where each graph level becomes a stage and each
node a job needing the previous stage's jobs. The stages come from the
same level partition interactive runs use, so ordering is identical.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := baseConfig()
		if err != nil {
			return err
		}
		universe, err := manifest.Load(ctx, cfg.ProjectsPath)
		if err != nil {
			return err
		}
		g, err := graph.BuildAll(ctx, universe)
		if err != nil {
			return err
		}
		levels, err := graph.AssignLevels(g)
		if err != nil {
			return err
		}

		doc, err := ci.Generate(g, levels, executor.Operation(flagCIOperation))
		if err != nil {
			return err
		}
		return writeOutput(cmd, flagCIOutput, doc)
	},
}

func init() {
	ciGenerateCmd.Flags().StringVar(&flagCIOperation, "operation", string(executor.OpApply), "Operation the generated jobs run.")
	ciGenerateCmd.Flags().StringVarP(&flagCIOutput, "output", "o", "", "Write the pipeline to a file instead of stdout.")
	ciCmd.AddCommand(ciGenerateCmd)
	rootCmd.AddCommand(ciCmd)
}
