package executor

import (
	"context"
	"fmt"

	"github.com/canopy-iac/canopy/internal/graph"
	"github.com/canopy-iac/canopy/internal/scheduler"
)

// Executor is the closed capability set an infrastructure backend must
// provide. Each method operates on a single node's working directory and
// blocks until the underlying tool finishes.
type Executor interface {
	Init(ctx context.Context, n *graph.Node) error
	Plan(ctx context.Context, n *graph.Node) error
	Apply(ctx context.Context, n *graph.Node) error
	Destroy(ctx context.Context, n *graph.Node) error
	Refresh(ctx context.Context, n *graph.Node) error
}

// ExecError wraps a node-level failure from the underlying tool. It is
// never silently dropped: the scheduler records it in the node's outcome.
type ExecError struct {
	Node graph.NodeID
	Op   string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Node, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Operation names one lifecycle operation a command can run across the graph.
type Operation string

const (
	OpApply   Operation = "apply"
	OpDestroy Operation = "destroy"
	OpPreview Operation = "preview"
	OpRefresh Operation = "refresh"
)

// Direction returns the level traversal direction for the operation:
// destroy consumes the level partition back-to-front, everything else
// processes dependencies first.
func (o Operation) Direction() scheduler.Direction {
	if o == OpDestroy {
		return scheduler.Reverse
	}
	return scheduler.Forward
}

// Bind adapts an Executor and an Operation into the scheduler's opaque Op
// function. Every operation initializes the working directory first, then
// runs the operation itself.
func Bind(exec Executor, o Operation) scheduler.Op {
	return func(ctx context.Context, n *graph.Node) error {
		if err := exec.Init(ctx, n); err != nil {
			return &ExecError{Node: n.ID, Op: "init", Err: err}
		}

		var err error
		switch o {
		case OpApply:
			err = exec.Apply(ctx, n)
		case OpDestroy:
			err = exec.Destroy(ctx, n)
		case OpPreview:
			err = exec.Plan(ctx, n)
		case OpRefresh:
			err = exec.Refresh(ctx, n)
		default:
			err = fmt.Errorf("unknown operation %q", o)
		}
		if err != nil {
			return &ExecError{Node: n.ID, Op: string(o), Err: err}
		}
		return nil
	}
}
