package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-iac/canopy/internal/graph"
)

// buildFixture turns a map of node -> dependencies into a graph and its
// level partition.
func buildFixture(t *testing.T, deps map[string][]string, noneNodes ...string) (*graph.Graph, []graph.Level) {
	t.Helper()

	none := make(map[string]bool, len(noneNodes))
	for _, name := range noneNodes {
		none[name] = true
	}

	var nodes []*graph.Node
	for name, nodeDeps := range deps {
		n := &graph.Node{
			ID:       graph.NodeID{Project: name, Environment: "dev"},
			Executor: graph.ExecutorOpenTofu,
		}
		if none[name] {
			n.Executor = graph.ExecutorNone
		}
		for _, dep := range nodeDeps {
			n.Dependencies = append(n.Dependencies, graph.DependencyDeclaration{Project: dep, Environment: "dev"})
		}
		nodes = append(nodes, n)
	}

	u, err := graph.NewUniverse(nodes)
	require.NoError(t, err)
	g, err := graph.BuildAll(context.Background(), u)
	require.NoError(t, err)
	levels, err := graph.AssignLevels(g)
	require.NoError(t, err)
	return g, levels
}

// recordingOp records invocation order and optionally fails chosen nodes.
type recordingOp struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]error
}

func (r *recordingOp) op(_ context.Context, n *graph.Node) error {
	r.mu.Lock()
	r.calls = append(r.calls, n.ID.Project)
	r.mu.Unlock()
	if r.failures != nil {
		if err, ok := r.failures[n.ID.Project]; ok {
			return err
		}
	}
	return nil
}

func outcomeByProject(outcomes []Outcome, project string) Outcome {
	for _, o := range outcomes {
		if o.ID.Project == project {
			return o
		}
	}
	return Outcome{}
}

func TestExecute_ForwardOrder(t *testing.T) {
	t.Parallel()

	// a depends on b depends on c.
	g, levels := buildFixture(t, map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
	})

	rec := &recordingOp{}
	outcomes := Execute(context.Background(), g, levels, rec.op, Options{Direction: Forward})

	assert.Equal(t, []string{"c", "b", "a"}, rec.calls)
	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.Equal(t, Success, o.Status)
	}
}

func TestExecute_ReverseOrder(t *testing.T) {
	t.Parallel()

	g, levels := buildFixture(t, map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
	})

	rec := &recordingOp{}
	outcomes := Execute(context.Background(), g, levels, rec.op, Options{Direction: Reverse})

	// Destroy processes dependents before their dependencies.
	assert.Equal(t, []string{"a", "b", "c"}, rec.calls)
	assert.Equal(t, "a", outcomes[0].ID.Project)
	assert.Equal(t, "c", outcomes[2].ID.Project)
}

func TestExecute_StopPolicy(t *testing.T) {
	t.Parallel()

	// Level 0 is {a, b}; c sits above them.
	g, levels := buildFixture(t, map[string][]string{
		"a": nil,
		"b": nil,
		"c": {"a", "b"},
	})

	rec := &recordingOp{failures: map[string]error{"a": errors.New("boom")}}
	outcomes := Execute(context.Background(), g, levels, rec.op, Options{
		MaxParallel: 1,
		OnFailure:   Stop,
	})

	// With sequential execution a fails first, so b is never started and
	// the run aborts before c's level.
	assert.Equal(t, []string{"a"}, rec.calls)
	assert.Equal(t, Failed, outcomeByProject(outcomes, "a").Status)
	assert.Equal(t, Skipped, outcomeByProject(outcomes, "b").Status)
	assert.Equal(t, Skipped, outcomeByProject(outcomes, "c").Status)
}

func TestExecute_ContinuePolicy(t *testing.T) {
	t.Parallel()

	g, levels := buildFixture(t, map[string][]string{
		"base": nil,
		"app":  {"base"},
	})

	rec := &recordingOp{failures: map[string]error{"base": errors.New("boom")}}
	outcomes := Execute(context.Background(), g, levels, rec.op, Options{OnFailure: Continue})

	// Dependents of the failed node are still attempted.
	assert.Equal(t, []string{"base", "app"}, rec.calls)
	assert.Equal(t, Failed, outcomeByProject(outcomes, "base").Status)
	assert.Equal(t, Success, outcomeByProject(outcomes, "app").Status)
}

func TestExecute_FinishLevelPolicy(t *testing.T) {
	t.Parallel()

	g, levels := buildFixture(t, map[string][]string{
		"a": nil,
		"b": nil,
		"c": {"a", "b"},
	})

	rec := &recordingOp{failures: map[string]error{"a": errors.New("boom")}}
	outcomes := Execute(context.Background(), g, levels, rec.op, Options{
		MaxParallel: 1,
		OnFailure:   FinishLevel,
	})

	// b shares a's level and still runs; c's level is never reached.
	assert.ElementsMatch(t, []string{"a", "b"}, rec.calls)
	assert.Equal(t, Failed, outcomeByProject(outcomes, "a").Status)
	assert.Equal(t, Success, outcomeByProject(outcomes, "b").Status)
	assert.Equal(t, Skipped, outcomeByProject(outcomes, "c").Status)
}

func TestExecute_NoneExecutorShortCircuits(t *testing.T) {
	t.Parallel()

	g, levels := buildFixture(t, map[string][]string{
		"group": nil,
		"app":   {"group"},
	}, "group")

	rec := &recordingOp{}
	outcomes := Execute(context.Background(), g, levels, rec.op, Options{})

	// The op never sees the none-executor node, and the next level still runs.
	assert.Equal(t, []string{"app"}, rec.calls)
	skipped := outcomeByProject(outcomes, "group")
	assert.Equal(t, Skipped, skipped.Status)
	assert.NoError(t, skipped.Err)
	assert.Equal(t, Success, outcomeByProject(outcomes, "app").Status)
}

func TestExecute_BoundedParallelism(t *testing.T) {
	t.Parallel()

	deps := map[string][]string{
		"a": nil, "b": nil, "c": nil, "d": nil, "e": nil, "f": nil,
	}
	g, levels := buildFixture(t, deps)

	var running, peak atomic.Int32
	op := func(ctx context.Context, n *graph.Node) error {
		now := running.Add(1)
		for {
			old := peak.Load()
			if now <= old || peak.CompareAndSwap(old, now) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	outcomes := Execute(context.Background(), g, levels, op, Options{MaxParallel: 2})
	require.Len(t, outcomes, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestExecute_OutcomeOrderIsDeterministic(t *testing.T) {
	t.Parallel()

	g, levels := buildFixture(t, map[string][]string{
		"a": nil, "b": nil, "c": nil,
	})

	// Make completion order unlike ID order.
	op := func(ctx context.Context, n *graph.Node) error {
		if n.ID.Project == "a" {
			time.Sleep(30 * time.Millisecond)
		}
		return nil
	}

	outcomes := Execute(context.Background(), g, levels, op, Options{MaxParallel: 3})
	require.Len(t, outcomes, 3)
	assert.Equal(t, "a", outcomes[0].ID.Project)
	assert.Equal(t, "b", outcomes[1].ID.Project)
	assert.Equal(t, "c", outcomes[2].ID.Project)
}

func TestExecute_Cancellation(t *testing.T) {
	t.Parallel()

	g, levels := buildFixture(t, map[string][]string{
		"base": nil,
		"app":  {"base"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	op := func(ctx context.Context, n *graph.Node) error {
		// Cancel while the first node is in flight; it still finishes.
		cancel()
		return nil
	}

	outcomes := Execute(ctx, g, levels, op, Options{})
	assert.Equal(t, Success, outcomeByProject(outcomes, "base").Status)
	assert.Equal(t, Skipped, outcomeByProject(outcomes, "app").Status)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "skipped", Skipped.String())
}
