package ci

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/canopy-iac/canopy/internal/executor"
	"github.com/canopy-iac/canopy/internal/graph"
)

// Generate encodes the level partition as a GitLab-style pipeline YAML
// document. Jobs and stages appear in deterministic order: stages follow
// the level indices, jobs follow ID order within each level.
func Generate(g *graph.Graph, levels []graph.Level, op executor.Operation) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}

	stageNames := make([]string, len(levels))
	for i := range levels {
		stageNames[i] = fmt.Sprintf("level-%d", i)
	}

	stagesSeq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, name := range stageNames {
		stagesSeq.Content = append(stagesSeq.Content, scalar(name))
	}
	appendPair(doc, scalar("stages"), stagesSeq)

	for i, level := range levels {
		var prevJobs []string
		if i > 0 {
			for _, id := range levels[i-1] {
				prevJobs = append(prevJobs, jobName(id))
			}
		}
		for _, id := range level {
			node, ok := g.Node(id)
			if !ok {
				return nil, fmt.Errorf("node %s missing from graph", id)
			}
			appendPair(doc, scalar(jobName(id)), jobNode(node, stageNames[i], prevJobs, op))
		}
	}

	root := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{doc}}
	return yaml.Marshal(root)
}

func jobNode(n *graph.Node, stage string, needs []string, op executor.Operation) *yaml.Node {
	job := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(job, scalar("stage"), scalar(stage))

	script := &yaml.Node{Kind: yaml.SequenceNode}
	if n.Executor == graph.ExecutorNone {
		script.Content = append(script.Content,
			scalar(fmt.Sprintf("echo ordering-only node %s", n.ID)))
	} else {
		script.Content = append(script.Content,
			scalar(fmt.Sprintf("canopy project %s %s --environment %s", op, n.ID.Project, n.ID.Environment)))
	}
	appendPair(job, scalar("script"), script)

	if len(needs) > 0 {
		needsSeq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, need := range needs {
			needsSeq.Content = append(needsSeq.Content, scalar(need))
		}
		appendPair(job, scalar("needs"), needsSeq)
	}
	return job
}

// jobName derives a CI-safe job identifier from a node ID.
func jobName(id graph.NodeID) string {
	name := id.Project + "-" + id.Environment
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	return sb.String()
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func appendPair(mapping *yaml.Node, key, value *yaml.Node) {
	mapping.Content = append(mapping.Content, key, value)
}
