package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuildAll(t *testing.T, nodes []*Node) *Graph {
	t.Helper()
	u, err := NewUniverse(nodes)
	require.NoError(t, err)
	g, err := BuildAll(context.Background(), u)
	require.NoError(t, err)
	return g
}

func levelStrings(levels []Level) [][]string {
	out := make([][]string, len(levels))
	for i, level := range levels {
		for _, id := range level {
			out[i] = append(out[i], id.String())
		}
	}
	return out
}

func TestAssignLevels_Chain(t *testing.T) {
	t.Parallel()

	// a depends on b depends on c.
	g := mustBuildAll(t, []*Node{
		testNode("a", "dev", explicitDep("b", "dev")),
		testNode("b", "dev", explicitDep("c", "dev")),
		testNode("c", "dev"),
	})

	levels, err := AssignLevels(g)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c/dev"}, {"b/dev"}, {"a/dev"}}, levelStrings(levels))
}

func TestAssignLevels_Diamond(t *testing.T) {
	t.Parallel()

	// a and b depend on c; d depends on a and b.
	g := mustBuildAll(t, []*Node{
		testNode("a", "dev", explicitDep("c", "dev")),
		testNode("b", "dev", explicitDep("c", "dev")),
		testNode("c", "dev"),
		testNode("d", "dev", explicitDep("a", "dev"), explicitDep("b", "dev")),
	})

	levels, err := AssignLevels(g)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c/dev"}, {"a/dev", "b/dev"}, {"d/dev"}}, levelStrings(levels))
}

func TestAssignLevels_NoEdges(t *testing.T) {
	t.Parallel()

	g := mustBuildAll(t, []*Node{
		testNode("a", "dev"),
		testNode("b", "dev"),
		testNode("c", "dev"),
	})

	levels, err := AssignLevels(g)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, [][]string{{"a/dev", "b/dev", "c/dev"}}, levelStrings(levels))
}

func TestAssignLevels_Cycle(t *testing.T) {
	t.Parallel()

	g := mustBuildAll(t, []*Node{
		testNode("a", "dev", explicitDep("b", "dev")),
		testNode("b", "dev", explicitDep("a", "dev")),
	})

	_, err := AssignLevels(g)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []NodeID{
		{Project: "a", Environment: "dev"},
		{Project: "b", Environment: "dev"},
	}, cycle.Members)

	// The chain walks the cycle and returns to its start.
	require.NotEmpty(t, cycle.Chain)
	assert.Equal(t, cycle.Chain[0], cycle.Chain[len(cycle.Chain)-1])
	assert.ErrorContains(t, err, "cycle")
}

func TestAssignLevels_CycleWithHealthyPrefix(t *testing.T) {
	t.Parallel()

	// base is leveled fine; b and c form the cyclic remainder.
	g := mustBuildAll(t, []*Node{
		testNode("base", "dev"),
		testNode("b", "dev", explicitDep("c", "dev"), explicitDep("base", "dev")),
		testNode("c", "dev", explicitDep("b", "dev")),
	})

	_, err := AssignLevels(g)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []NodeID{
		{Project: "b", Environment: "dev"},
		{Project: "c", Environment: "dev"},
	}, cycle.Members)
}

func TestAssignLevels_Properties(t *testing.T) {
	t.Parallel()

	g := mustBuildAll(t, []*Node{
		testNode("a", "dev", explicitDep("c", "dev")),
		testNode("b", "dev", explicitDep("c", "dev"), explicitDep("e", "dev")),
		testNode("c", "dev", explicitDep("e", "dev")),
		testNode("d", "dev", explicitDep("a", "dev"), explicitDep("b", "dev")),
		testNode("e", "dev"),
		testNode("f", "dev"),
	})

	levels, err := AssignLevels(g)
	require.NoError(t, err)

	t.Run("partition completeness", func(t *testing.T) {
		seen := make(map[NodeID]int)
		total := 0
		for _, level := range levels {
			for _, id := range level {
				seen[id]++
				total++
			}
		}
		assert.Equal(t, g.Len(), total)
		for id, count := range seen {
			assert.Equal(t, 1, count, "node %s assigned %d times", id, count)
		}
	})

	t.Run("level minimality", func(t *testing.T) {
		levelOf := make(map[NodeID]int)
		for i, level := range levels {
			for _, id := range level {
				levelOf[id] = i
			}
		}
		for _, id := range g.NodeIDs() {
			highestDep := -1
			for _, dep := range g.DependenciesOf(id) {
				assert.Less(t, levelOf[dep], levelOf[id], "dependency %s must precede %s", dep, id)
				if levelOf[dep] > highestDep {
					highestDep = levelOf[dep]
				}
			}
			assert.Equal(t, highestDep+1, levelOf[id], "node %s should sit directly above its highest dependency", id)
		}
	})
}
