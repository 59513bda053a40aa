package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canopy-iac/canopy/internal/scaffold"
)

var (
	flagNewTemplate string
	flagNewSet      []string
)

var projectNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Generate a new project from a template directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if flagNewTemplate == "" {
			return fmt.Errorf("--template is required")
		}

		values := make(map[string]string, len(flagNewSet))
		for _, pair := range flagNewSet {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --set value %q (expected key=value)", pair)
			}
			values[key] = value
		}

		target := filepath.Join(flagProjectsDir, name)
		return scaffold.Generate(cmd.Context(), flagNewTemplate, target, scaffold.Inputs{
			Project: name,
			Values:  values,
		})
	},
}

func init() {
	projectNewCmd.Flags().StringVarP(&flagNewTemplate, "template", "t", "", "Template directory to render.")
	projectNewCmd.Flags().StringArrayVar(&flagNewSet, "set", nil, "Template input as key=value; repeatable.")
	projectCmd.AddCommand(projectNewCmd)
}
