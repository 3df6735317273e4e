// Package scan implements the Scan execution core: the stateful driver
// that iterates a compiled body plan, slicing selected inputs and
// accumulating selected outputs, per spec.md. The mapping types in this
// file are a closed, tagged-variant description of body-input/output
// data flow (spec.md §9, "Declarative mapping vs. imperative
// dispatch"): Go has no sum types, so each variant is its own struct
// implementing a private marker method, and LoopDriver dispatches with
// a type switch rather than a polymorphic Resolve method — the variants
// are closed and the switch is on the hot path.
package scan

import (
	"fmt"

	"github.com/hyperifyio/scanrt/dim"
	"github.com/hyperifyio/scanrt/errs"
	"github.com/hyperifyio/scanrt/tensor"
)

// ScanInfo identifies how one outer slot is sliced (for an input) or
// accumulated (for an output) per iteration. Triple (slot, axis, chunk)
// exactly per spec.md §3.
type ScanInfo struct {
	Slot  int
	Axis  int
	Chunk int
}

// Validate enforces ScanInfo's own invariants against a known rank:
// axis < rank(tensor(slot)) and chunk != 0.
func (s ScanInfo) Validate(rank int) error {
	if s.Chunk == 0 {
		return fmt.Errorf("scan: %w: chunk must not be zero (slot %d)", errs.ErrInvalidScanInfo, s.Slot)
	}
	if s.Axis < 0 || s.Axis >= rank {
		return fmt.Errorf("scan: %w: axis %d out of range for rank %d (slot %d)", errs.ErrInvalidScanInfo, s.Axis, rank, s.Slot)
	}
	return nil
}

// Backward reports whether this ScanInfo accumulates/slices in reverse.
func (s ScanInfo) Backward() bool { return s.Chunk < 0 }

// InputMapping is the closed sum type describing how one body input is
// fed each iteration: Full, State, Scan, or IterIndex.
type InputMapping interface {
	isInputMapping()
}

// Full passes the outer input at Slot unchanged every iteration.
type Full struct{ Slot int }

func (Full) isInputMapping() {}

// State marks a hidden-state slot; its value comes from Initializer on
// the first iteration and from the paired State OutputMapping after.
type State struct{ Initializer StateInitializer }

func (State) isInputMapping() {}

// Scan feeds a |chunk|-sized slice of the outer input along Info.Axis,
// per iteration, per spec.md §4.1.
type Scan struct{ Info ScanInfo }

func (Scan) isInputMapping() {}

// IterIndex feeds the 0-based iteration index as a 0-dimensional int64 tensor.
type IterIndex struct{}

func (IterIndex) isInputMapping() {}

// StateInitializer is the closed sum type describing a hidden state
// slot's initial value: either copied from an outer input, or a
// constant embedded in the op.
type StateInitializer interface {
	isStateInitializer()
	initialValue(outer []*tensor.Tensor) (*tensor.Tensor, error)
}

// FromInput takes the initial hidden-state value from the outer input at Slot.
type FromInput struct{ Slot int }

func (FromInput) isStateInitializer() {}

func (f FromInput) initialValue(outer []*tensor.Tensor) (*tensor.Tensor, error) {
	if f.Slot < 0 || f.Slot >= len(outer) {
		return nil, fmt.Errorf("scan: %w: FromInput slot %d out of range (%d outer inputs)", errs.ErrMappingArity, f.Slot, len(outer))
	}
	return outer[f.Slot].Clone(), nil
}

// Value uses a constant tensor embedded in the op as the initial value.
type Value struct{ Tensor *tensor.Tensor }

func (Value) isStateInitializer() {}

func (v Value) initialValue(_ []*tensor.Tensor) (*tensor.Tensor, error) {
	return v.Tensor.Clone(), nil
}

// OutputMapping describes how one body output feeds back into the
// outer graph: accumulated into a scan output, placed as a final
// value, fed back as hidden state, or any combination of the three.
type OutputMapping struct {
	Scan          *ScanInfo
	LastValueSlot *int
	State         bool
	// FullDimHint optionally overrides ShapeSolver's computed total
	// length for an accumulated axis (spec.md §3).
	FullDimHint *dim.TDim
}

// ExitCondition decides when the loop stops, per spec.md §3.
type ExitCondition struct {
	ConditionFromState *int
	TripCountFromInput *int
}
