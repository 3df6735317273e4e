// Package fact describes a compile-time Tensor fact: a datum type and a
// possibly-symbolic shape, as produced by the model graph compiler for
// each of the body's outputs (spec.md §1, "out of scope" collaborators)
// and consumed by ShapeSolver to type a Scan's own outputs.
package fact

import (
	"github.com/hyperifyio/scanrt/dim"
	"github.com/hyperifyio/scanrt/tensor"
)

// Fact is a compile-time description of a tensor: its datum type and a
// shape made of possibly-symbolic dimensions.
type Fact struct {
	DType tensor.DType
	Shape []dim.TDim
}

// New builds a Fact from a datum type and a list of dimensions.
func New(dtype tensor.DType, shape ...dim.TDim) Fact {
	return Fact{DType: dtype, Shape: shape}
}

// Resolve evaluates every symbolic dimension against env, returning a
// concrete integer shape suitable for tensor.New.
func (f Fact) Resolve(env dim.SymbolEnv) ([]int, error) {
	out := make([]int, len(f.Shape))
	for i, d := range f.Shape {
		v, err := d.Eval(env)
		if err != nil {
			return nil, err
		}
		out[i] = int(v)
	}
	return out, nil
}
