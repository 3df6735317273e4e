// Package plan declares the interface the Scan execution core expects
// from its nested body executor: the compiled tensor computation a
// LoopDriver dispatches once per iteration. The actual graph compiler
// and its execution engine are external collaborators out of scope for
// this module (spec.md §1); this package only specifies the contract a
// driver depends on, plus a small in-process reference implementation
// (FuncBody) used by the scan package's own tests and by cmd/scanrun.
package plan

import (
	"context"

	"github.com/hyperifyio/scanrt/fact"
	"github.com/hyperifyio/scanrt/tensor"
)

// Body is the opaque, freezable executor over a compiled body plan
// that a Driver owns for the lifetime of one Scan invocation.
type Body interface {
	// Eval runs the body once with the given inputs, in the order
	// InputMapping positions them, and returns outputs in the order
	// OutputMapping expects them.
	Eval(ctx context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error)
	// OutputFacts describes each body output's datum type and
	// possibly-symbolic shape, used by ShapeSolver at compile time.
	OutputFacts() []fact.Fact
	// Freeze captures the body's own execution state, if any.
	Freeze() FrozenBody
}

// FrozenBody is an immutable snapshot of a Body's execution state.
type FrozenBody interface {
	// Unfreeze reconstructs a fresh Body whose subsequent Eval behaves
	// as if no interruption occurred.
	Unfreeze() Body
}

// Factory constructs a fresh Body instance. An Op holds one Factory,
// shared by every Driver that op.State creates, mirroring how
// LirScanOpParams holds a single Arc<TypedSimplePlan> that every driver
// instantiates its own TypedSimpleState against.
type Factory func() Body
