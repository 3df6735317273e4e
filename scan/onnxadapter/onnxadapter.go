// Package onnxadapter implements the Parser contract from spec.md §6:
// translating an external Loop node description into the mapping
// tuple (InputMapping, OutputMapping, ExitCondition) a scan.Op needs,
// plus the iteration-index cast the parser is responsible for
// inserting. It is grounded on
// original_source/onnx/src/ops/loop_.rs's loop_(), which does exactly
// this translation against tract's own Scan operator.
package onnxadapter

import (
	"context"
	"fmt"

	"github.com/hyperifyio/scanrt/errs"
	"github.com/hyperifyio/scanrt/fact"
	"github.com/hyperifyio/scanrt/plan"
	"github.com/hyperifyio/scanrt/scan"
	"github.com/hyperifyio/scanrt/tensor"
)

// LoopDescription mirrors the positional inputs an ONNX Loop node gives
// the parser: an optional trip count, an optional initial condition, a
// run of initial state values, and whatever outer values the body
// subgraph references that aren't part of either (captured inputs).
// BodyOutputCount is the body subgraph's total output count, condition
// included.
type LoopDescription struct {
	TripCountSlot   *int
	ConditionSlot   *int
	StateSlots      []int
	CapturedSlots   []int
	BodyOutputCount int
}

// Parse builds the mapping tuple loop_() builds in
// original_source/onnx/src/ops/loop_.rs: IterIndex first, then the
// condition state (its own hidden-state slot 0), then one State entry
// per initial value with a matching last_value_slot output, then Scan
// outputs for whatever body outputs remain, then Full mappings for any
// captured inputs.
func Parse(desc LoopDescription) ([]scan.InputMapping, []scan.OutputMapping, scan.ExitCondition, error) {
	if desc.TripCountSlot == nil && desc.ConditionSlot == nil {
		return nil, nil, scan.ExitCondition{}, fmt.Errorf("onnxadapter: %w: Loop has no exit condition", errs.ErrBadCondition)
	}

	inputMapping := []scan.InputMapping{scan.IterIndex{}}

	var condInit scan.StateInitializer = scan.Value{Tensor: tensor.ScalarBool0D(true)}
	if desc.ConditionSlot != nil {
		condInit = scan.FromInput{Slot: *desc.ConditionSlot}
	}
	inputMapping = append(inputMapping, scan.State{Initializer: condInit})
	outputMapping := []scan.OutputMapping{{State: true}}

	exitCond := scan.ExitCondition{TripCountFromInput: desc.TripCountSlot}
	if desc.ConditionSlot != nil {
		zero := 0
		exitCond.ConditionFromState = &zero
	}

	// The condition output (mapping index 0) has no outer slot, so outer
	// output slots start at 0 with the first state's final value.
	for _, slot := range desc.StateSlots {
		inputMapping = append(inputMapping, scan.State{Initializer: scan.FromInput{Slot: slot}})
		lastSlot := len(outputMapping) - 1
		outputMapping = append(outputMapping, scan.OutputMapping{State: true, LastValueSlot: &lastSlot})
	}

	for len(outputMapping) < desc.BodyOutputCount {
		scanSlot := len(outputMapping) - 1
		outputMapping = append(outputMapping, scan.OutputMapping{Scan: &scan.ScanInfo{Slot: scanSlot, Axis: 0, Chunk: 1}})
	}

	for _, slot := range desc.CapturedSlots {
		inputMapping = append(inputMapping, scan.Full{Slot: slot})
	}

	if len(outputMapping) != desc.BodyOutputCount {
		return nil, nil, scan.ExitCondition{}, fmt.Errorf("onnxadapter: %w: mapped %d outputs, body declares %d", errs.ErrMappingArity, len(outputMapping), desc.BodyOutputCount)
	}

	return inputMapping, outputMapping, exitCond, nil
}

// CastIterIndex converts a 0-D iteration-index tensor to Int64, the
// datum type the driver always feeds IterIndex inputs as. It mirrors
// the cast node loop_() splices in front of the body's first input
// when the body subgraph declared the iteration count as a TDim-typed
// (here, Float32) graph input instead of a plain 64-bit integer.
func CastIterIndex(v *tensor.Tensor) (*tensor.Tensor, error) {
	switch v.DType() {
	case tensor.Int64:
		return v, nil
	case tensor.Float32:
		f, err := v.ScalarFloat32()
		if err != nil {
			return nil, err
		}
		return tensor.Scalar0D(int64(f)), nil
	default:
		return nil, fmt.Errorf("onnxadapter: %w: cannot cast a %s iteration index to int64", errs.ErrMappingArity, v.DType())
	}
}

// WrapCastIterIndex wraps body so CastIterIndex runs on its first
// input (the IterIndex mapping Parse always places first) before every
// Eval call, for bodies compiled from a subgraph that declared a
// non-Int64 iteration-count input.
func WrapCastIterIndex(body plan.Body) plan.Body {
	return &castBody{body}
}

type castBody struct{ inner plan.Body }

func (b *castBody) Eval(ctx context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(inputs) == 0 {
		return b.inner.Eval(ctx, inputs)
	}
	cast, err := CastIterIndex(inputs[0])
	if err != nil {
		return nil, err
	}
	casted := append([]*tensor.Tensor{cast}, inputs[1:]...)
	return b.inner.Eval(ctx, casted)
}

func (b *castBody) OutputFacts() []fact.Fact { return b.inner.OutputFacts() }

func (b *castBody) Freeze() plan.FrozenBody { return castFrozenBody{b.inner.Freeze()} }

type castFrozenBody struct{ inner plan.FrozenBody }

func (f castFrozenBody) Unfreeze() plan.Body { return &castBody{f.inner.Unfreeze()} }
