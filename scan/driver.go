package scan

import (
	"context"
	"fmt"

	"github.com/hyperifyio/scanrt/dim"
	"github.com/hyperifyio/scanrt/errs"
	"github.com/hyperifyio/scanrt/logging"
	"github.com/hyperifyio/scanrt/plan"
	"github.com/hyperifyio/scanrt/session"
	"github.com/hyperifyio/scanrt/tensor"
)

// Driver is the per-invocation state machine described in spec.md §3
// ("Driver state") and §4.3: it owns position, hidden_state, and the
// nested body executor exclusively; op is a shared, immutable
// reference. Driver state is created lazily by Op.State and destroyed
// with the enclosing session state; nothing in this package persists it
// to disk (spec.md Non-goals).
type Driver struct {
	op       *Op
	position int
	hidden   []*tensor.Tensor
	body     plan.Body
	failed   bool
}

// bodyInputArity is an optional extension a Body may implement to
// report how many inputs it expects, letting the driver check
// spec.md §3 invariant 3 before dispatching. Bodies that don't
// implement it (like plan.FuncBody) simply skip that check.
type bodyInputArity interface {
	InputArity() int
}

// Eval runs Phases A-E of spec.md §4.3 to completion and returns the
// outer outputs in ascending slot order. ctx is honored at each
// iteration boundary; cancellation leaves the driver's state undefined
// per spec.md §5 — it must not be reused afterward, mirroring
// errs.ErrDriverReused for any failed call.
func (d *Driver) Eval(ctx context.Context, sess *session.Session, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if d.failed {
		return nil, errs.ErrDriverReused
	}
	outputs, err := d.eval(ctx, sess, inputs)
	if err != nil {
		d.failed = true
	}
	return outputs, err
}

func (d *Driver) eval(ctx context.Context, sess *session.Session, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	op := d.op

	if ba, ok := d.body.(bodyInputArity); ok {
		if n := ba.InputArity(); n != len(op.InputMapping) {
			return nil, fmt.Errorf("scan: %w: body expects %d inputs, op.InputMapping has %d entries", errs.ErrMappingArity, n, len(op.InputMapping))
		}
	}

	// Phase A: initialize hidden state on first eval only, detected by
	// an empty hidden-state vector (spec.md §3 Lifecycle).
	if len(d.hidden) == 0 {
		for _, im := range op.InputMapping {
			st, ok := im.(State)
			if !ok {
				continue
			}
			v, err := st.Initializer.initialValue(inputs)
			if err != nil {
				return nil, err
			}
			d.hidden = append(d.hidden, v)
		}
		if op.ExitCondition.ConditionFromState != nil {
			idx := *op.ExitCondition.ConditionFromState
			if idx < 0 || idx >= len(d.hidden) {
				return nil, fmt.Errorf("scan: %w: condition_from_state index %d out of range", errs.ErrBadCondition, idx)
			}
			if _, err := d.hidden[idx].ScalarBool(); err != nil {
				return nil, err
			}
		}
	}

	// Phase B: determine iters.
	var iters *int
	if info, ok := op.firstScanInput(); ok {
		if info.Slot < 0 || info.Slot >= len(inputs) {
			return nil, fmt.Errorf("scan: %w: Scan input references out-of-range slot %d", errs.ErrMappingArity, info.Slot)
		}
		if info.Axis < 0 || info.Axis >= inputs[info.Slot].Rank() {
			return nil, fmt.Errorf("scan: %w: axis %d out of range for slot %d", errs.ErrSliceMismatch, info.Axis, info.Slot)
		}
		k := info.Chunk
		if k < 0 {
			k = -k
		}
		n := int(dim.DivCeilInt(int64(inputs[info.Slot].Shape()[info.Axis]), int64(k)))
		iters = &n
	}
	if op.ExitCondition.TripCountFromInput != nil {
		slot := *op.ExitCondition.TripCountFromInput
		if slot < 0 || slot >= len(inputs) {
			return nil, fmt.Errorf("scan: %w: trip_count_from_input references out-of-range slot %d", errs.ErrBadTripCount, slot)
		}
		v, err := inputs[slot].ScalarInt64()
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, fmt.Errorf("scan: %w: trip count %d is negative", errs.ErrBadTripCount, v)
		}
		n := int(v)
		iters = &n
	}
	if iters == nil && op.ExitCondition.ConditionFromState == nil {
		return nil, fmt.Errorf("scan: %w: no trip count, scan input, or condition to derive iteration count from", errs.ErrMappingArity)
	}

	// Phase C: allocate outputs.
	bodyFacts := d.body.OutputFacts()
	if err := op.Validate(len(bodyFacts)); err != nil {
		return nil, err
	}
	outSlotCount := op.outputSlotCount()
	outputs := make([]*tensor.Tensor, outSlotCount)

	for ix, om := range op.OutputMapping {
		if om.Scan != nil {
			bf := bodyFacts[ix]
			shape := make([]int, len(bf.Shape))
			for j, bd := range bf.Shape {
				if j == om.Scan.Axis {
					continue
				}
				v, err := bd.Eval(sess.Symbols)
				if err != nil {
					return nil, fmt.Errorf("scan: %w: %v", errs.ErrShapeResolutionFailure, err)
				}
				shape[j] = int(v)
			}
			var scanLen int
			if om.FullDimHint != nil {
				v, err := om.FullDimHint.Eval(sess.Symbols)
				if err != nil {
					return nil, fmt.Errorf("scan: %w: %v", errs.ErrShapeResolutionFailure, err)
				}
				scanLen = int(v)
			} else {
				base, err := bf.Shape[om.Scan.Axis].Eval(sess.Symbols)
				if err != nil {
					return nil, fmt.Errorf("scan: %w: %v", errs.ErrShapeResolutionFailure, err)
				}
				if iters == nil {
					return nil, fmt.Errorf("scan: %w: cannot size scan output %d without a known iteration count or full_dim_hint", errs.ErrShapeResolutionFailure, om.Scan.Slot)
				}
				scanLen = int(base) * *iters
			}
			shape[om.Scan.Axis] = scanLen
			t, err := tensor.New(bf.DType, shape...)
			if err != nil {
				return nil, err
			}
			outputs[om.Scan.Slot] = t
		}
		if om.LastValueSlot != nil && outputs[*om.LastValueSlot] == nil {
			// Placeholder; overwritten once the final iteration runs (spec.md §4.2/§4.3 Phase C).
			bf := bodyFacts[ix]
			shape, err := bf.Resolve(sess.Symbols)
			if err != nil {
				shape = make([]int, len(bf.Shape))
			}
			placeholder, err := tensor.New(bf.DType, placeholderShape(shape)...)
			if err != nil {
				return nil, err
			}
			outputs[*om.LastValueSlot] = placeholder
		}
	}

	// Phase D: iterate. i is the raw loop counter fed to prepareInputs
	// for slicing and IterIndex, advancing by one every pass regardless
	// of whether that pass skips; position advances in the same
	// lockstep (position == i+1 always) and is the value skip actually
	// gates on. This mirrors original_source/core/src/ops/scan/lir.rs's
	// eval(), where `for i in 0..` is a plain Rust range iterator that
	// keeps advancing through `continue`d passes, and *position += 1
	// happens unconditionally at the top of the loop body before the
	// skip/iters/condition checks. A skip of s therefore consumes the
	// first s values of i without running the body, so the first
	// executed iteration slices at i == skip, not i == 0, and the total
	// number of executed passes is iters - skip either way.
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		d.position++
		if d.position <= op.Skip {
			continue
		}

		if iters != nil && i == *iters {
			logging.DebugLogf("scan[%s]: breaking at iteration %d: reached iteration count", sess.ID, i)
			break
		}
		if op.ExitCondition.ConditionFromState != nil {
			idx := *op.ExitCondition.ConditionFromState
			cond, err := d.hidden[idx].ScalarBool()
			if err != nil {
				return nil, fmt.Errorf("scan: %w", err)
			}
			if cond {
				logging.DebugLogf("scan[%s]: breaking at iteration %d: condition became true", sess.ID, i)
				break
			}
		}

		iterInputs, err := d.prepareInputs(inputs, i)
		if err != nil {
			return nil, err
		}

		logging.DebugLogf("scan[%s]: iter #%d inputs prepared", sess.ID, i)
		iterOutputs, err := d.body.Eval(ctx, iterInputs)
		if err != nil {
			return nil, errs.WrapBodyFailure(i, err)
		}
		if len(iterOutputs) != len(op.OutputMapping) {
			return nil, fmt.Errorf("scan: %w: body returned %d outputs, expected %d", errs.ErrMappingArity, len(iterOutputs), len(op.OutputMapping))
		}

		var nextHidden []*tensor.Tensor
		for ix, om := range op.OutputMapping {
			v := iterOutputs[ix]
			if om.Scan != nil {
				if err := tensor.Assign(outputs[om.Scan.Slot], om.Scan.Axis, v, i, om.Scan.Backward()); err != nil {
					return nil, err
				}
			}
			if om.LastValueSlot != nil {
				// The most recently produced value always wins, so both
				// a fixed iteration count and a condition-only loop
				// (iters == nil) end up with the final executed
				// iteration's output, per SPEC_FULL §6.1 — no need to
				// predict which pass is last.
				outputs[*om.LastValueSlot] = v
			}
			if om.State {
				nextHidden = append(nextHidden, v)
			}
		}
		d.hidden = nextHidden
	}

	return outputs, nil
}

// placeholderShape turns a possibly partially-resolved shape into one
// safe to allocate: every dimension is raised to at least 1 (a
// dimension Resolve couldn't determine arrives as 0), and a rank-0
// shape becomes [1]. A last_value_slot placeholder is replaced by the
// body output of every executed iteration.
func placeholderShape(shape []int) []int {
	if len(shape) == 0 {
		return []int{1}
	}
	out := append([]int(nil), shape...)
	for i, v := range out {
		out[i] = tensor.Max(v, 1)
	}
	return out
}

// prepareInputs assembles the body inputs for iteration i, in the
// order of op.InputMapping (spec.md §4.3 Phase D step 4). Hidden-state
// entries are consumed strictly in insertion order (spec.md §9,
// "Hidden-state reordering").
func (d *Driver) prepareInputs(outer []*tensor.Tensor, i int) ([]*tensor.Tensor, error) {
	out := make([]*tensor.Tensor, len(d.op.InputMapping))
	cursor := 0
	for ix, im := range d.op.InputMapping {
		switch m := im.(type) {
		case State:
			if cursor >= len(d.hidden) {
				return nil, fmt.Errorf("scan: %w: ran out of hidden-state entries while preparing inputs", errs.ErrStateArityMismatch)
			}
			out[ix] = d.hidden[cursor]
			cursor++
		case Scan:
			if m.Info.Slot < 0 || m.Info.Slot >= len(outer) {
				return nil, fmt.Errorf("scan: %w: Scan mapping references out-of-range slot %d", errs.ErrMappingArity, m.Info.Slot)
			}
			sliced, err := tensor.Slice(outer[m.Info.Slot], m.Info.Axis, i, m.Info.Chunk)
			if err != nil {
				return nil, err
			}
			out[ix] = sliced
		case Full:
			if m.Slot < 0 || m.Slot >= len(outer) {
				return nil, fmt.Errorf("scan: %w: Full mapping references out-of-range slot %d", errs.ErrMappingArity, m.Slot)
			}
			out[ix] = outer[m.Slot].Clone()
		case IterIndex:
			out[ix] = tensor.Scalar0D(int64(i))
		default:
			return nil, fmt.Errorf("scan: unknown input mapping variant at position %d", ix)
		}
	}
	return out, nil
}

// Freeze captures an immutable snapshot of the driver's state, per
// spec.md §4.4.
func (d *Driver) Freeze() *FrozenDriver {
	hiddenClone := make([]*tensor.Tensor, len(d.hidden))
	for i, t := range d.hidden {
		hiddenClone[i] = t.Clone()
	}
	return &FrozenDriver{
		op:       d.op,
		position: d.position,
		hidden:   hiddenClone,
		body:     d.body.Freeze(),
	}
}

// FrozenDriver is an immutable snapshot produced by Driver.Freeze.
type FrozenDriver struct {
	op       *Op
	position int
	hidden   []*tensor.Tensor
	body     plan.FrozenBody
}

// Unfreeze reverses Freeze, producing a fresh Driver whose subsequent
// Eval behaves as if no interruption occurred (spec.md §4.4, §8
// property 3).
func (f *FrozenDriver) Unfreeze() *Driver {
	hiddenClone := make([]*tensor.Tensor, len(f.hidden))
	for i, t := range f.hidden {
		hiddenClone[i] = t.Clone()
	}
	return &Driver{
		op:       f.op,
		position: f.position,
		hidden:   hiddenClone,
		body:     f.body.Unfreeze(),
	}
}
