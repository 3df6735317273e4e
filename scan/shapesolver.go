package scan

import (
	"fmt"

	"github.com/hyperifyio/scanrt/dim"
	"github.com/hyperifyio/scanrt/errs"
	"github.com/hyperifyio/scanrt/fact"
)

// OutputFacts computes each outer output's compile-time Fact from the
// body's own output facts, the mapping, and the inputs' facts, per
// spec.md §4.2. It takes no symbol environment: iters is computed as a
// TDim from the first Scan input's axis dimension, so it stays symbolic
// when that dimension is symbolic. It fails when the op has no Scan
// input mapping. Driver.Eval's Phase C does not call it; the driver
// sizes its accumulators itself from the body facts and the concrete
// iteration count.
//
// Grounded on original_source/core/src/ops/scan/lir.rs's
// TypedOp::output_facts.
func OutputFacts(op *Op, inputFacts []fact.Fact, bodyFacts []fact.Fact) ([]fact.Fact, error) {
	info, ok := op.firstScanInput()
	if !ok {
		return nil, fmt.Errorf("scan: %w: output_facts requires at least one Scan input mapping", errs.ErrMappingArity)
	}
	if info.Slot < 0 || info.Slot >= len(inputFacts) {
		return nil, fmt.Errorf("scan: %w: Scan input mapping references out-of-range slot %d", errs.ErrMappingArity, info.Slot)
	}
	inFact := inputFacts[info.Slot]
	if info.Axis < 0 || info.Axis >= len(inFact.Shape) {
		return nil, fmt.Errorf("scan: %w: axis %d out of range for input slot %d", errs.ErrSliceMismatch, info.Axis, info.Slot)
	}
	k := info.Chunk
	if k < 0 {
		k = -k
	}
	iters := inFact.Shape[info.Axis].DivCeil(int64(k))

	type slotted struct {
		slot int
		fact fact.Fact
	}
	var outs []slotted

	for ix, om := range op.OutputMapping {
		if ix >= len(bodyFacts) {
			return nil, fmt.Errorf("scan: %w: output mapping %d has no matching body output fact", errs.ErrMappingArity, ix)
		}
		bf := bodyFacts[ix]

		if om.LastValueSlot != nil {
			outs = append(outs, slotted{*om.LastValueSlot, fact.New(bf.DType, append([]dim.TDim(nil), bf.Shape...)...)})
		}
		if om.Scan != nil {
			if om.Scan.Axis < 0 || om.Scan.Axis >= len(bf.Shape) {
				return nil, fmt.Errorf("scan: %w: scan axis %d out of range for body output %d", errs.ErrSliceMismatch, om.Scan.Axis, ix)
			}
			shape := append([]dim.TDim(nil), bf.Shape...)
			var scanning dim.TDim
			if om.FullDimHint != nil {
				scanning = *om.FullDimHint
			} else {
				scanning = mulDim(bf.Shape[om.Scan.Axis], iters)
			}
			shape[om.Scan.Axis] = scanning
			outs = append(outs, slotted{om.Scan.Slot, fact.New(bf.DType, shape...)})
		}
	}

	result := make([]fact.Fact, len(outs))
	seen := make([]bool, len(outs))
	for _, o := range outs {
		if o.slot < 0 || o.slot >= len(outs) || seen[o.slot] {
			return nil, fmt.Errorf("scan: %w: output slots are not dense 0..%d", errs.ErrOutputSlotsNotDense, len(outs)-1)
		}
		seen[o.slot] = true
		result[o.slot] = o.fact
	}
	return result, nil
}

// mulDim multiplies two TDims. TDim.MulInt only multiplies by a plain
// integer, so when either side is a literal the other is multiplied by
// it. When both sides are symbolic the product is returned as a new
// symbol named after the textual product (e.g. "(N*ceil(M/2))"); Eval
// resolves that symbol only if the environment binds that exact name.
func mulDim(base dim.TDim, iters dim.TDim) dim.TDim {
	if lit, ok := iters.AsLiteral(); ok {
		return base.MulInt(lit)
	}
	if lit, ok := base.AsLiteral(); ok {
		return iters.MulInt(lit)
	}
	// Both symbolic: record the product via string composition so
	// Info()/debugging output remains meaningful.
	return dim.Sym(fmt.Sprintf("(%s*%s)", base.String(), iters.String()))
}

// ResolveOutputShapes is the eval-time counterpart of OutputFacts
// (spec.md §4.3 Phase C): given the outer inputs' facts and a session
// environment, compute concrete integer shapes ready for tensor.New.
func ResolveOutputShapes(op *Op, inputs []fact.Fact, bodyFacts []fact.Fact, env dim.SymbolEnv) ([][]int, error) {
	facts, err := OutputFacts(op, inputs, bodyFacts)
	if err != nil {
		return nil, err
	}
	out := make([][]int, len(facts))
	for i, f := range facts {
		shape, err := f.Resolve(env)
		if err != nil {
			return nil, err
		}
		out[i] = shape
	}
	return out, nil
}
