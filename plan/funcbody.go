package plan

import (
	"context"

	"github.com/hyperifyio/scanrt/fact"
	"github.com/hyperifyio/scanrt/tensor"
)

// FuncBody adapts a plain Go function into a Body. It carries no
// execution state of its own (Freeze/Unfreeze are no-ops that return
// the same stateless value), which is the common case for the small
// recurrent-cell and trip-count-loop bodies used in tests and in the
// cmd/scanrun demo; a body backed by a real compiled graph would instead
// freeze its own interpreter state the way the nested TypedSimpleState
// does in original_source/core/src/ops/scan/lir.rs.
type FuncBody struct {
	Fn     func(ctx context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error)
	Facts  []fact.Fact
}

// NewFuncBody builds a stateless Body from fn and its declared output facts.
func NewFuncBody(facts []fact.Fact, fn func(ctx context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error)) *FuncBody {
	return &FuncBody{Fn: fn, Facts: facts}
}

func (b *FuncBody) Eval(ctx context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	return b.Fn(ctx, inputs)
}

func (b *FuncBody) OutputFacts() []fact.Fact { return b.Facts }

func (b *FuncBody) Freeze() FrozenBody { return funcBodyFrozen{b} }

type funcBodyFrozen struct{ b *FuncBody }

func (f funcBodyFrozen) Unfreeze() Body { return f.b }
