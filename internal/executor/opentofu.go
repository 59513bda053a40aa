package executor

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/canopy-iac/canopy/internal/ctxlog"
	"github.com/canopy-iac/canopy/internal/graph"
)

// OpenTofu shells out to the tofu CLI for each lifecycle operation. The
// node's Dir is passed via -chdir so module state stays with the project.
type OpenTofu struct {
	// Binary is the executable to invoke, "tofu" by default.
	Binary string
	// Stdout and Stderr receive the tool's output streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewOpenTofu creates an OpenTofu executor writing tool output to the
// given streams.
func NewOpenTofu(stdout, stderr io.Writer) *OpenTofu {
	return &OpenTofu{Binary: "tofu", Stdout: stdout, Stderr: stderr}
}

func (t *OpenTofu) Init(ctx context.Context, n *graph.Node) error {
	return t.run(ctx, n, "init", "-input=false")
}

func (t *OpenTofu) Plan(ctx context.Context, n *graph.Node) error {
	return t.run(ctx, n, "plan", withVars(n, "-input=false")...)
}

func (t *OpenTofu) Apply(ctx context.Context, n *graph.Node) error {
	return t.run(ctx, n, "apply", withVars(n, "-input=false", "-auto-approve")...)
}

func (t *OpenTofu) Destroy(ctx context.Context, n *graph.Node) error {
	return t.run(ctx, n, "destroy", withVars(n, "-input=false", "-auto-approve")...)
}

func (t *OpenTofu) Refresh(ctx context.Context, n *graph.Node) error {
	return t.run(ctx, n, "refresh", withVars(n, "-input=false")...)
}

// withVars appends the node's input values as -var flags, in key order.
// Init takes no -var flags, so it bypasses this.
func withVars(n *graph.Node, base ...string) []string {
	if len(n.Vars) == 0 {
		return base
	}
	keys := make([]string, 0, len(n.Vars))
	for k := range n.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := base
	for _, k := range keys {
		args = append(args, "-var", k+"="+formatVar(n.Vars[k]))
	}
	return args
}

// formatVar serializes one input value the way the tool expects on the
// command line: strings raw, everything else as JSON.
func formatVar(v cty.Value) string {
	if v.Type() == cty.String && !v.IsNull() {
		return v.AsString()
	}
	out, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		// Manifest decoding only produces marshalable values.
		return v.GoString()
	}
	return string(out)
}

func (t *OpenTofu) run(ctx context.Context, n *graph.Node, subcommand string, extra ...string) error {
	logger := ctxlog.FromContext(ctx)

	args := append([]string{"-chdir=" + n.Dir, subcommand}, extra...)
	logger.Debug("Invoking external tool.", "binary", t.Binary, "args", args, "node", n.ID.String())

	cmd := exec.CommandContext(ctx, t.Binary, args...)
	cmd.Stdout = t.Stdout
	cmd.Stderr = t.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s in %s: %w", t.Binary, subcommand, n.Dir, err)
	}
	return nil
}
