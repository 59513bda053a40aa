package manifest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/canopy-iac/canopy/internal/ctxlog"
	"github.com/canopy-iac/canopy/internal/fsutil"
	"github.com/canopy-iac/canopy/internal/graph"
)

// manifestFile is the top-level structure of one manifest for decoding.
type manifestFile struct {
	Projects []*projectBlock `hcl:"project,block"`
}

type projectBlock struct {
	Name         string              `hcl:"name,label"`
	APIVersion   string              `hcl:"api_version"`
	Kind         string              `hcl:"kind"`
	Environments []*environmentBlock `hcl:"environment,block"`
}

type environmentBlock struct {
	Name         string             `hcl:"name,label"`
	Dir          string             `hcl:"dir,optional"`
	Alias        string             `hcl:"alias,optional"`
	Executor     string             `hcl:"executor,optional"`
	Labels       map[string]string  `hcl:"labels,optional"`
	Vars         cty.Value          `hcl:"vars,optional"`
	Dependencies []*dependencyBlock `hcl:"dependency,block"`
}

type dependencyBlock struct {
	Project     string            `hcl:"project,optional"`
	Environment string            `hcl:"environment,optional"`
	APIVersion  string            `hcl:"api_version,optional"`
	Kind        string            `hcl:"kind,optional"`
	MatchLabels map[string]string `hcl:"match_labels,optional"`
	Name        string            `hcl:"name,optional"`
}

// Load walks rootPath for .hcl manifests and aggregates every project
// block found into a single universe. Splitting projects across many
// files is supported; dependency declarations may reference projects
// defined in any file.
func Load(ctx context.Context, rootPath string) (*graph.Universe, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(rootPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("discovering manifests under %s: %w", rootPath, err)
	}
	logger.Debug("Discovered manifest files.", "count", len(files), "root", rootPath)

	parser := hclparse.NewParser()
	var nodes []*graph.Node
	for _, path := range files {
		fileNodes, err := loadFile(path, parser)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, fileNodes...)
	}

	universe, err := graph.NewUniverse(nodes)
	if err != nil {
		return nil, err
	}
	logger.Debug("Universe assembled.", "nodes", universe.Len())
	return universe, nil
}

// loadFile parses a single manifest and returns the nodes it declares.
func loadFile(path string, parser *hclparse.Parser) ([]*graph.Node, error) {
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}

	var file manifestFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &file); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}

	baseDir := filepath.Dir(path)
	var nodes []*graph.Node
	for _, proj := range file.Projects {
		for _, env := range proj.Environments {
			node, err := buildNode(path, baseDir, proj, env)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

func buildNode(path, baseDir string, proj *projectBlock, env *environmentBlock) (*graph.Node, error) {
	executorKind, err := parseExecutor(env.Executor)
	if err != nil {
		return nil, fmt.Errorf("%s: project %q environment %q: %w", path, proj.Name, env.Name, err)
	}

	dir := env.Dir
	if dir == "" {
		dir = filepath.Join(proj.Name, env.Name)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, dir)
	}

	vars, err := parseVars(env.Vars)
	if err != nil {
		return nil, fmt.Errorf("%s: project %q environment %q: %w", path, proj.Name, env.Name, err)
	}

	deps := make([]graph.DependencyDeclaration, 0, len(env.Dependencies))
	for _, d := range env.Dependencies {
		deps = append(deps, graph.DependencyDeclaration{
			Project:     d.Project,
			Environment: d.Environment,
			APIVersion:  d.APIVersion,
			Kind:        d.Kind,
			MatchLabels: d.MatchLabels,
			Name:        d.Name,
		})
	}

	return &graph.Node{
		ID:           graph.NodeID{Project: proj.Name, Environment: env.Name},
		APIVersion:   proj.APIVersion,
		Kind:         proj.Kind,
		Alias:        env.Alias,
		Labels:       env.Labels,
		Executor:     executorKind,
		Dir:          dir,
		Vars:         vars,
		Dependencies: deps,
	}, nil
}

// parseVars unpacks the optional vars attribute. Any object or map value
// is accepted; element types are preserved for the executor to serialize.
func parseVars(v cty.Value) (map[string]cty.Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("vars must be an object, got %s", ty.FriendlyName())
	}
	if v.LengthInt() == 0 {
		return nil, nil
	}
	return v.AsValueMap(), nil
}

func parseExecutor(s string) (graph.ExecutorKind, error) {
	switch s {
	case "", string(graph.ExecutorOpenTofu):
		return graph.ExecutorOpenTofu, nil
	case string(graph.ExecutorNone):
		return graph.ExecutorNone, nil
	}
	return "", fmt.Errorf("unknown executor %q (expected %q or %q)", s, graph.ExecutorOpenTofu, graph.ExecutorNone)
}
