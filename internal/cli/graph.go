package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopy-iac/canopy/internal/graph"
	"github.com/canopy-iac/canopy/internal/manifest"
	"github.com/canopy-iac/canopy/internal/render"
)

var (
	flagGraphAll    bool
	flagGraphEnv    string
	flagGraphFormat string
	flagGraphOutput string
)

var graphCmd = &cobra.Command{
	Use:   "graph [project]",
	Short: "Render the dependency graph",
	Long: `Render the dependency graph rooted at a project/environment pair, or the
whole universe with --all, as an ascii tree, mermaid flowchart or DOT
digraph. The graph is validated (cycle-free) before rendering.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := render.ParseFormat(flagGraphFormat)
		if err != nil {
			return err
		}
		if !flagGraphAll && len(args) == 0 {
			return fmt.Errorf("a project argument is required unless --all is given")
		}

		cfg, err := baseConfig()
		if err != nil {
			return err
		}
		universe, err := manifest.Load(ctx, cfg.ProjectsPath)
		if err != nil {
			return err
		}

		var g *graph.Graph
		var root *graph.NodeID
		if flagGraphAll {
			g, err = graph.BuildAll(ctx, universe)
		} else {
			id := nodeIDArg(args[0], flagGraphEnv)
			root = &id
			g, err = graph.Build(ctx, universe, id)
		}
		if err != nil {
			return err
		}
		if _, err := graph.AssignLevels(g); err != nil {
			return err
		}

		out, err := render.Graph(g, root, format)
		if err != nil {
			return err
		}
		return writeOutput(cmd, flagGraphOutput, []byte(out))
	},
}

func init() {
	graphCmd.Flags().BoolVar(&flagGraphAll, "all", false, "Render the whole graph instead of one rooted at a project.")
	graphCmd.Flags().StringVarP(&flagGraphEnv, "environment", "e", "default", "Environment of the root project.")
	graphCmd.Flags().StringVarP(&flagGraphFormat, "format", "f", "ascii", "Output format: ascii, mermaid or dot.")
	graphCmd.Flags().StringVarP(&flagGraphOutput, "output", "o", "", "Write output to a file instead of stdout.")
	rootCmd.AddCommand(graphCmd)
}
