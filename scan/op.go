package scan

import (
	"fmt"
	"sort"

	"github.com/hyperifyio/scanrt/errs"
	"github.com/hyperifyio/scanrt/plan"
)

// Op is the shared, immutable parameter record for one Scan
// instantiation in a graph: a reference-counted handle (in Go, simply
// an immutable value shared by pointer) referenced by both the
// compile-time Op interface and every runtime Driver. It is never
// mutated after construction, so no copy-on-write is needed — the same
// design spec.md §9 calls out for the source's Arc<LirScanOpParams>.
type Op struct {
	// Skip delays the start of execution by this many calls to Eval's
	// inner step, per spec.md §4.3 Phase D step 1.
	Skip int
	// NewBody constructs a fresh body executor for one Driver.
	NewBody plan.Factory
	// InputMapping is positional: entry ix describes the ix-th body input.
	InputMapping []InputMapping
	// OutputMapping is positional: entry ix describes the ix-th body output.
	OutputMapping []OutputMapping
	ExitCondition ExitCondition
}

// Name matches the Op interface consumed by the graph runtime (spec.md §6).
func (op *Op) Name() string { return "Scan" }

// IsStateless is always false: Scan always needs a Driver.
func (op *Op) IsStateless() bool { return false }

// Info renders one human-readable line per input and output mapping.
func (op *Op) Info() []string {
	lines := make([]string, 0, len(op.InputMapping)+len(op.OutputMapping))
	for ix, im := range op.InputMapping {
		lines = append(lines, fmt.Sprintf("Model input  #%d: %s", ix, describeInput(im)))
	}
	for ix, om := range op.OutputMapping {
		lines = append(lines, fmt.Sprintf("Model output #%d: %s", ix, describeOutput(om)))
	}
	return lines
}

func describeInput(im InputMapping) string {
	switch v := im.(type) {
	case Full:
		return fmt.Sprintf("Full{slot=%d}", v.Slot)
	case State:
		return "State{...}"
	case Scan:
		return fmt.Sprintf("Scan{slot=%d,axis=%d,chunk=%d}", v.Info.Slot, v.Info.Axis, v.Info.Chunk)
	case IterIndex:
		return "IterIndex"
	default:
		return "?"
	}
}

func describeOutput(om OutputMapping) string {
	s := ""
	if om.Scan != nil {
		s += fmt.Sprintf("scan{slot=%d,axis=%d,chunk=%d} ", om.Scan.Slot, om.Scan.Axis, om.Scan.Chunk)
	}
	if om.LastValueSlot != nil {
		s += fmt.Sprintf("last_value_slot=%d ", *om.LastValueSlot)
	}
	if om.State {
		s += "state "
	}
	if s == "" {
		return "(unused)"
	}
	return s
}

// State constructs the per-invocation Driver for this op, per spec.md §6.
func (op *Op) State() *Driver {
	return &Driver{op: op, body: op.NewBody()}
}

// Validate checks the invariants from spec.md §3 that don't require a
// concrete invocation's inputs: state arity (invariant 2) and output
// slot density (invariant 5). bodyOutputCount, when non-negative, also
// checks invariant 4 (output mapping count matches body output count).
func (op *Op) Validate(bodyOutputCount int) error {
	stateInputs := 0
	for _, im := range op.InputMapping {
		if _, ok := im.(State); ok {
			stateInputs++
		}
	}
	stateOutputs := 0
	for _, om := range op.OutputMapping {
		if om.State {
			stateOutputs++
		}
	}
	if stateInputs != stateOutputs {
		return fmt.Errorf("scan: %w: %d State input mappings but %d State output mappings", errs.ErrStateArityMismatch, stateInputs, stateOutputs)
	}

	if bodyOutputCount >= 0 && len(op.OutputMapping) != bodyOutputCount {
		return fmt.Errorf("scan: %w: %d output mappings but body has %d outputs", errs.ErrMappingArity, len(op.OutputMapping), bodyOutputCount)
	}

	var slots []int
	for _, om := range op.OutputMapping {
		if om.Scan != nil {
			slots = append(slots, om.Scan.Slot)
		}
		if om.LastValueSlot != nil {
			slots = append(slots, *om.LastValueSlot)
		}
	}
	sort.Ints(slots)
	for i, s := range slots {
		if s != i {
			return fmt.Errorf("scan: %w: expected outer output slots 0..%d, got %v", errs.ErrOutputSlotsNotDense, len(slots)-1, slots)
		}
	}

	if op.ExitCondition.ConditionFromState != nil {
		idx := *op.ExitCondition.ConditionFromState
		if idx < 0 || idx >= stateInputs {
			return fmt.Errorf("scan: %w: condition_from_state index %d out of range for %d state entries", errs.ErrBadCondition, idx, stateInputs)
		}
	}

	return nil
}

// outputSlotCount returns K, the dense outer-output width (invariant 5).
func (op *Op) outputSlotCount() int {
	max := -1
	for _, om := range op.OutputMapping {
		if om.Scan != nil && om.Scan.Slot > max {
			max = om.Scan.Slot
		}
		if om.LastValueSlot != nil && *om.LastValueSlot > max {
			max = *om.LastValueSlot
		}
	}
	return max + 1
}

// firstScanInput returns the first Scan input mapping's ScanInfo, used
// to derive the iteration count when no trip count input is given.
func (op *Op) firstScanInput() (ScanInfo, bool) {
	for _, im := range op.InputMapping {
		if s, ok := im.(Scan); ok {
			return s.Info, true
		}
	}
	return ScanInfo{}, false
}

// stateInputCount returns how many State entries InputMapping has,
// which is also the length hidden_state settles to after Phase A.
func (op *Op) stateInputCount() int {
	n := 0
	for _, im := range op.InputMapping {
		if _, ok := im.(State); ok {
			n++
		}
	}
	return n
}
