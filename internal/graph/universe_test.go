package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNode builds a minimal node for resolver and builder tests.
func testNode(project, env string, deps ...DependencyDeclaration) *Node {
	return &Node{
		ID:           NodeID{Project: project, Environment: env},
		APIVersion:   "infra.canopy.io/v1",
		Kind:         "Service",
		Executor:     ExecutorOpenTofu,
		Dependencies: deps,
	}
}

func explicitDep(project, env string) DependencyDeclaration {
	return DependencyDeclaration{Project: project, Environment: env}
}

func TestNewUniverse(t *testing.T) {
	t.Run("accepts distinct nodes", func(t *testing.T) {
		u, err := NewUniverse([]*Node{testNode("a", "dev"), testNode("a", "prod")})
		require.NoError(t, err)
		assert.Equal(t, 2, u.Len())
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		_, err := NewUniverse([]*Node{testNode("a", "dev"), testNode("a", "dev")})
		assert.ErrorContains(t, err, "duplicate node a/dev")
	})

	t.Run("nodes are sorted by id", func(t *testing.T) {
		u, err := NewUniverse([]*Node{testNode("b", "dev"), testNode("a", "prod"), testNode("a", "dev")})
		require.NoError(t, err)
		var got []string
		for _, n := range u.Nodes() {
			got = append(got, n.ID.String())
		}
		assert.Equal(t, []string{"a/dev", "a/prod", "b/dev"}, got)
	})
}

func TestResolve_Explicit(t *testing.T) {
	t.Parallel()

	a := testNode("a", "dev", explicitDep("b", "dev"))
	u, err := NewUniverse([]*Node{a, testNode("b", "dev")})
	require.NoError(t, err)

	t.Run("direct lookup", func(t *testing.T) {
		edges, err := u.Resolve(a)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, NodeID{Project: "a", Environment: "dev"}, edges[0].From)
		assert.Equal(t, NodeID{Project: "b", Environment: "dev"}, edges[0].To)
	})

	t.Run("empty environment defaults to declaring node's environment", func(t *testing.T) {
		n := testNode("c", "dev", DependencyDeclaration{Project: "b"})
		u2, err := NewUniverse([]*Node{n, testNode("b", "dev")})
		require.NoError(t, err)

		edges, err := u2.Resolve(n)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, NodeID{Project: "b", Environment: "dev"}, edges[0].To)
	})

	t.Run("missing target is unresolved with suggestions", func(t *testing.T) {
		n := testNode("a", "dev", explicitDep("b", "prod"))
		u2, err := NewUniverse([]*Node{n, testNode("b", "dev")})
		require.NoError(t, err)

		_, err = u2.Resolve(n)
		var unresolved *UnresolvedDependencyError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, n.ID, unresolved.Node)
		assert.Contains(t, unresolved.Suggestions, "b/dev")
	})

	t.Run("self reference is invalid", func(t *testing.T) {
		n := testNode("a", "dev", explicitDep("a", "dev"))
		u2, err := NewUniverse([]*Node{n})
		require.NoError(t, err)

		_, err = u2.Resolve(n)
		var invalid *InvalidDependencyError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "itself")
	})
}

func TestResolve_Descriptive(t *testing.T) {
	t.Parallel()

	database := func(project, env string, labels map[string]string) *Node {
		n := testNode(project, env)
		n.Kind = "Database"
		n.Labels = labels
		return n
	}

	t.Run("single kind match resolves", func(t *testing.T) {
		n := testNode("app", "dev", DependencyDeclaration{APIVersion: "infra.canopy.io/v1", Kind: "Database"})
		u, err := NewUniverse([]*Node{n, database("db", "dev", nil)})
		require.NoError(t, err)

		edges, err := u.Resolve(n)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, NodeID{Project: "db", Environment: "dev"}, edges[0].To)
	})

	t.Run("zero matches is unresolved", func(t *testing.T) {
		n := testNode("app", "dev", DependencyDeclaration{APIVersion: "infra.canopy.io/v1", Kind: "Queue"})
		u, err := NewUniverse([]*Node{n, database("db", "dev", nil)})
		require.NoError(t, err)

		_, err = u.Resolve(n)
		var unresolved *UnresolvedDependencyError
		require.ErrorAs(t, err, &unresolved)
		assert.Contains(t, unresolved.Suggestions, "infra.canopy.io/v1/Database")
	})

	t.Run("label selector narrows candidates", func(t *testing.T) {
		n := testNode("app", "dev", DependencyDeclaration{
			APIVersion:  "infra.canopy.io/v1",
			Kind:        "Database",
			MatchLabels: map[string]string{"tier": "primary"},
		})
		u, err := NewUniverse([]*Node{
			n,
			database("db-primary", "dev", map[string]string{"tier": "primary"}),
			database("db-replica", "dev", map[string]string{"tier": "replica"}),
		})
		require.NoError(t, err)

		edges, err := u.Resolve(n)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, "db-primary", edges[0].To.Project)
	})

	t.Run("multiple matches without name is ambiguous", func(t *testing.T) {
		n := testNode("app", "dev", DependencyDeclaration{APIVersion: "infra.canopy.io/v1", Kind: "Database"})
		u, err := NewUniverse([]*Node{
			n,
			database("db1", "dev", nil),
			database("db2", "dev", nil),
		})
		require.NoError(t, err)

		_, err = u.Resolve(n)
		var ambiguous *AmbiguousDependencyError
		require.ErrorAs(t, err, &ambiguous)
		assert.Len(t, ambiguous.Candidates, 2)
	})

	t.Run("name narrows by project name", func(t *testing.T) {
		n := testNode("app", "dev", DependencyDeclaration{
			APIVersion: "infra.canopy.io/v1",
			Kind:       "Database",
			Name:       "db2",
		})
		u, err := NewUniverse([]*Node{n, database("db1", "dev", nil), database("db2", "dev", nil)})
		require.NoError(t, err)

		edges, err := u.Resolve(n)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, "db2", edges[0].To.Project)
	})

	t.Run("name falls back to alias", func(t *testing.T) {
		primary := database("db1", "dev", nil)
		primary.Alias = "primary"
		n := testNode("app", "dev", DependencyDeclaration{
			APIVersion: "infra.canopy.io/v1",
			Kind:       "Database",
			Name:       "primary",
		})
		u, err := NewUniverse([]*Node{n, primary, database("db2", "dev", nil)})
		require.NoError(t, err)

		edges, err := u.Resolve(n)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, "db1", edges[0].To.Project)
	})

	t.Run("declaration with neither project nor kind is invalid", func(t *testing.T) {
		n := testNode("app", "dev", DependencyDeclaration{Name: "whatever"})
		u, err := NewUniverse([]*Node{n})
		require.NoError(t, err)

		_, err = u.Resolve(n)
		var invalid *InvalidDependencyError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()

	n := testNode("app", "dev", DependencyDeclaration{APIVersion: "infra.canopy.io/v1", Kind: "Service", Name: "base"})
	u, err := NewUniverse([]*Node{n, testNode("base", "dev"), testNode("other", "dev")})
	require.NoError(t, err)

	first, err := u.Resolve(n)
	require.NoError(t, err)
	second, err := u.Resolve(n)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
