package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/canopy-iac/canopy/internal/ctxlog"
	"github.com/canopy-iac/canopy/internal/graph"
)

// Direction selects the order in which levels are consumed.
type Direction int

const (
	// Forward processes levels in ascending order: dependencies before
	// dependents. Used by apply, preview and refresh.
	Forward Direction = iota
	// Reverse processes the same level partition back-to-front:
	// dependents before their dependencies. Used by destroy.
	Reverse
)

// FailurePolicy governs how the run proceeds after a node fails.
type FailurePolicy int

const (
	// Continue records the failure and proceeds to the next level. Nodes
	// that transitively depend on a failed node are still attempted; the
	// caller interprets partial failures.
	Continue FailurePolicy = iota
	// Stop aborts the run on the first failure. In-flight nodes are
	// drained, everything not yet started reports Skipped.
	Stop
	// FinishLevel completes the remaining nodes of the failing level but
	// does not advance past it.
	FinishLevel
)

// Status is the per-node result classification.
type Status int

const (
	Success Status = iota
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome is the recorded result of running the operation on one node.
type Outcome struct {
	ID     graph.NodeID
	Status Status
	Err    error
}

// Op is the externally-supplied operation invoked per node. It is treated
// as opaque and synchronous; timeouts, if any, are its own concern.
type Op func(ctx context.Context, n *graph.Node) error

// Options configures a single run.
type Options struct {
	Direction Direction
	// MaxParallel bounds concurrent ops within one level. Values below 1
	// mean fully sequential.
	MaxParallel int
	OnFailure   FailurePolicy
}

// errNotStarted marks outcomes of nodes never handed to the operation.
var errNotStarted = errors.New("not started: run aborted before this node")

// Execute runs op across the leveled graph. Outcomes are returned in
// level processing order, and within each level in ID order, regardless
// of real completion timing. Context cancellation stops new nodes from
// starting; in-flight operations are allowed to finish.
func Execute(ctx context.Context, g *graph.Graph, levels []graph.Level, op Op, opts Options) []Outcome {
	logger := ctxlog.FromContext(ctx)
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}

	ordered := make([]graph.Level, len(levels))
	copy(ordered, levels)
	if opts.Direction == Reverse {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	outcomes := make([]Outcome, 0, g.Len())
	var halted atomic.Bool

	for i, level := range ordered {
		if halted.Load() || ctx.Err() != nil {
			for _, id := range level {
				outcomes = append(outcomes, Outcome{ID: id, Status: Skipped, Err: errNotStarted})
			}
			continue
		}

		logger.Debug("Processing level.", "level", i, "nodes", len(level), "parallel", opts.MaxParallel)
		results := runLevel(ctx, g, level, op, opts, &halted)
		levelFailed := false
		for _, id := range level {
			out := results[id]
			if out.Status == Failed {
				levelFailed = true
			}
			outcomes = append(outcomes, out)
		}

		if levelFailed {
			switch opts.OnFailure {
			case Stop, FinishLevel:
				halted.Store(true)
			case Continue:
				logger.Warn("Continuing past failed level; dependents of failed nodes will still be attempted.", "level", i)
			}
		}
	}

	return outcomes
}

// runLevel executes one level under the concurrency limit and returns the
// per-node outcomes. The level acts as a barrier: runLevel does not return
// until every node has completed, skipped, or been marked unstarted.
func runLevel(ctx context.Context, g *graph.Graph, level graph.Level, op Op, opts Options, halted *atomic.Bool) map[graph.NodeID]Outcome {
	logger := ctxlog.FromContext(ctx)

	var mu sync.Mutex
	results := make(map[graph.NodeID]Outcome, len(level))
	record := func(out Outcome) {
		mu.Lock()
		results[out.ID] = out
		mu.Unlock()
	}

	var pool errgroup.Group
	pool.SetLimit(opts.MaxParallel)

	for _, id := range level {
		node, ok := g.Node(id)
		if !ok {
			// Levels are derived from the graph, so this is unreachable
			// unless the caller mixed structures from different builds.
			record(Outcome{ID: id, Status: Skipped, Err: errors.New("node missing from graph")})
			continue
		}

		pool.Go(func() error {
			if halted.Load() || ctx.Err() != nil {
				record(Outcome{ID: node.ID, Status: Skipped, Err: errNotStarted})
				return nil
			}

			if node.Executor == graph.ExecutorNone {
				logger.Debug("Skipping none-executor node.", "node", node.ID.String())
				record(Outcome{ID: node.ID, Status: Skipped})
				return nil
			}

			logger.Info("▶️ Running operation", "node", node.ID.String())
			if err := op(ctx, node); err != nil {
				logger.Error("Operation failed.", "node", node.ID.String(), "error", err)
				record(Outcome{ID: node.ID, Status: Failed, Err: err})
				if opts.OnFailure == Stop {
					halted.Store(true)
				}
				return nil
			}

			logger.Info("✅ Operation succeeded", "node", node.ID.String())
			record(Outcome{ID: node.ID, Status: Success})
			return nil
		})
	}

	// Errors never propagate through the group; Wait is purely a barrier.
	_ = pool.Wait()
	return results
}
