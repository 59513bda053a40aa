package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/canopy-iac/canopy/internal/graph"
	"github.com/canopy-iac/canopy/internal/manifest"
)

var (
	flagDepsFormat string
	flagImpactEnv  string
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Analyze dependencies between projects",
}

var depsAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize the whole dependency graph",
	Long: `Build the whole-universe graph and report its level partition,
bottlenecks (nodes many others depend on) and standalone nodes.`,
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

		summary := analyzeSummary{
			Nodes:      g.Len(),
			Edges:      g.EdgeCount(),
			Levels:     make([][]string, len(levels)),
			Standalone: idStrings(graph.Standalone(g)),
		}
		for i, level := range levels {
			summary.Levels[i] = idStrings(level)
		}
		for _, b := range graph.Bottlenecks(g) {
			summary.Bottlenecks = append(summary.Bottlenecks, bottleneckSummary{
				Node:       b.ID.String(),
				Dependents: b.Dependents,
			})
		}

		switch flagDepsFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		case "text":
			printAnalyzeTables(cmd, summary)
			return nil
		}
		return fmt.Errorf("unknown format %q (expected text or json)", flagDepsFormat)
	},
}

var depsImpactCmd = &cobra.Command{
	Use:   "impact <project>",
	Short: "Show the blast radius of a project/environment pair",
	Args:  cobra.ExactArgs(1),
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

		result, err := graph.Impact(g, nodeIDArg(args[0], flagImpactEnv))
		if err != nil {
			return err
		}

		switch flagDepsFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(impactSummary{
				Target:     result.Target.String(),
				Direct:     idStrings(result.Direct),
				Transitive: idStrings(result.Transitive),
			})
		case "text":
			printImpactTable(cmd, result)
			return nil
		}
		return fmt.Errorf("unknown format %q (expected text or json)", flagDepsFormat)
	},
}

type analyzeSummary struct {
	Nodes       int                 `json:"nodes"`
	Edges       int                 `json:"edges"`
	Levels      [][]string          `json:"levels"`
	Bottlenecks []bottleneckSummary `json:"bottlenecks"`
	Standalone  []string            `json:"standalone"`
}

type bottleneckSummary struct {
	Node       string `json:"node"`
	Dependents int    `json:"dependents"`
}

type impactSummary struct {
	Target     string   `json:"target"`
	Direct     []string `json:"direct"`
	Transitive []string `json:"transitive"`
}

func printAnalyzeTables(cmd *cobra.Command, s analyzeSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d nodes, %d edges, %d levels\n\n", s.Nodes, s.Edges, len(s.Levels))

	lt := table.NewWriter()
	lt.SetOutputMirror(out)
	lt.AppendHeader(table.Row{"Level", "Nodes"})
	for i, level := range s.Levels {
		for _, id := range level {
			lt.AppendRow(table.Row{i, id})
		}
	}
	lt.Render()

	if len(s.Bottlenecks) > 0 {
		bt := table.NewWriter()
		bt.SetOutputMirror(out)
		bt.AppendHeader(table.Row{"Bottleneck", "Dependents"})
		for _, b := range s.Bottlenecks {
			bt.AppendRow(table.Row{b.Node, b.Dependents})
		}
		bt.Render()
	}

	if len(s.Standalone) > 0 {
		st := table.NewWriter()
		st.SetOutputMirror(out)
		st.AppendHeader(table.Row{"Standalone"})
		for _, id := range s.Standalone {
			st.AppendRow(table.Row{id})
		}
		st.Render()
	}
}

func printImpactTable(cmd *cobra.Command, r *graph.ImpactResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "impact of %s: %d direct, %d transitive\n", r.Target, len(r.Direct), len(r.Transitive))

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Dependent", "Relation"})
	direct := make(map[graph.NodeID]bool, len(r.Direct))
	for _, id := range r.Direct {
		direct[id] = true
	}
	for _, id := range r.Transitive {
		relation := "transitive"
		if direct[id] {
			relation = "direct"
		}
		t.AppendRow(table.Row{id.String(), relation})
	}
	t.Render()
}

func idStrings(ids []graph.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func init() {
	depsCmd.PersistentFlags().StringVarP(&flagDepsFormat, "format", "f", "text", "Output format: text or json.")
	depsImpactCmd.Flags().StringVarP(&flagImpactEnv, "environment", "e", "default", "Environment of the target project.")
	depsCmd.AddCommand(depsAnalyzeCmd)
	depsCmd.AddCommand(depsImpactCmd)
	rootCmd.AddCommand(depsCmd)
}
