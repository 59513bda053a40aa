package executor

import (
	"context"

	"github.com/canopy-iac/canopy/internal/ctxlog"
	"github.com/canopy-iac/canopy/internal/graph"
)

// None performs no infrastructure operation. Nodes using it exist only to
// express grouping and ordering; the scheduler normally short-circuits
// them before any executor is consulted, so these methods are a safety
// net for direct invocation.
type None struct{}

func (None) Init(ctx context.Context, n *graph.Node) error    { return noop(ctx, n, "init") }
func (None) Plan(ctx context.Context, n *graph.Node) error    { return noop(ctx, n, "plan") }
func (None) Apply(ctx context.Context, n *graph.Node) error   { return noop(ctx, n, "apply") }
func (None) Destroy(ctx context.Context, n *graph.Node) error { return noop(ctx, n, "destroy") }
func (None) Refresh(ctx context.Context, n *graph.Node) error { return noop(ctx, n, "refresh") }

func noop(ctx context.Context, n *graph.Node, op string) error {
	ctxlog.FromContext(ctx).Debug("None executor ignoring operation.", "op", op, "node", n.ID.String())
	return nil
}
