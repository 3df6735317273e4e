package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/scanrt/dim"
	"github.com/hyperifyio/scanrt/fact"
	"github.com/hyperifyio/scanrt/plan"
	"github.com/hyperifyio/scanrt/session"
	"github.com/hyperifyio/scanrt/tensor"
)

func newSession() *session.Session { return session.New(nil) }

// accumulatorBody echoes its scan-slot input (slot 0) straight back out,
// so the accumulated scan output equals whatever Slice/Assign produce.
// chunkSize must match the body's actual per-call output length along
// the scan axis: Phase C only consults it to size the accumulator when
// no FullDimHint overrides that computation.
func accumulatorBody(chunkSize int64) func() plan.Body {
	return func() plan.Body {
		return plan.NewFuncBody(
			[]fact.Fact{fact.New(tensor.Float32, dim.Lit(chunkSize))},
			func(_ context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
				return []*tensor.Tensor{inputs[0]}, nil
			},
		)
	}
}

// TestScanTripCountAccumulation is scenario S1: a pure trip-count loop
// with no scan input, adding the 0-based iteration index into a scalar
// running total held as hidden state.
func TestScanTripCountAccumulation(t *testing.T) {
	body := plan.NewFuncBody(
		[]fact.Fact{fact.New(tensor.Int64)},
		func(_ context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
			idx, err := inputs[0].ScalarInt64()
			if err != nil {
				return nil, err
			}
			s, err := inputs[1].ScalarInt64()
			if err != nil {
				return nil, err
			}
			return []*tensor.Tensor{tensor.Scalar0D(s + idx)}, nil
		},
	)

	op := &Op{
		NewBody: func() plan.Body { return body },
		InputMapping: []InputMapping{
			IterIndex{},
			State{Initializer: FromInput{Slot: 0}},
		},
		OutputMapping: []OutputMapping{
			{State: true, LastValueSlot: intp(0)},
		},
		ExitCondition: ExitCondition{TripCountFromInput: intp(1)},
	}

	d := op.State()
	outputs, err := d.Eval(context.Background(), newSession(), []*tensor.Tensor{
		tensor.Scalar0D(10),
		tensor.Scalar0D(3),
	})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	v, err := outputs[0].ScalarInt64()
	require.NoError(t, err)
	// indices 0,1,2 added to the running total started at 10: 10+0+1+2=13.
	require.Equal(t, int64(13), v)
}

// TestScanForwardAccumulation is scenario S2: a forward scan with
// chunk=1 over an exact multiple of the input length, echoing each
// slice straight back into the matching scan output.
func TestScanForwardAccumulation(t *testing.T) {
	op := &Op{
		NewBody: accumulatorBody(1),
		InputMapping: []InputMapping{
			Scan{Info: ScanInfo{Slot: 0, Axis: 0, Chunk: 1}},
		},
		OutputMapping: []OutputMapping{
			{Scan: &ScanInfo{Slot: 0, Axis: 0, Chunk: 1}},
		},
	}

	d := op.State()
	src := newFloat32Tensor(t, 7, 11, 13, 17, 19)

	outputs, err := d.Eval(context.Background(), newSession(), []*tensor.Tensor{src})
	require.NoError(t, err)
	require.Equal(t, []float32{7, 11, 13, 17, 19}, srcData(outputs[0]))
}

// TestScanReverseRaggedAccumulation is scenario S3: a reverse scan
// (chunk=-2) over a length not evenly divisible by the chunk size,
// echoing each slice back. The literal Slice/Assign formulas (ported
// from original_source's slice_input/assign_output) leave the
// accumulator's first cell untouched rather than producing the
// evenly-shifted "[_, 1, 2, 3, 4, 5]" one might expect from a loose
// reading of the reverse-scan description; this is what the formulas
// actually compute and is exercised here directly.
func TestScanReverseRaggedAccumulation(t *testing.T) {
	op := &Op{
		NewBody: accumulatorBody(2),
		InputMapping: []InputMapping{
			Scan{Info: ScanInfo{Slot: 0, Axis: 0, Chunk: -2}},
		},
		OutputMapping: []OutputMapping{
			{Scan: &ScanInfo{Slot: 0, Axis: 0, Chunk: -2}, FullDimHint: fullDimHint(6)},
		},
	}

	d := op.State()
	src := newFloat32Tensor(t, 1, 2, 3, 4, 5)

	outputs, err := d.Eval(context.Background(), newSession(), []*tensor.Tensor{src})
	require.NoError(t, err)
	require.Equal(t, []float32{0, 0, 1, 2, 3, 4}, srcData(outputs[0]))
}

// TestScanEarlyExitOnCondition is scenario S4: a condition-only loop
// (no trip count, no scan input) that increments a counter each
// iteration and flips a boolean hidden state true once the counter
// reaches 2. position counts every probing pass, including the final
// one that discovers the condition is already true and breaks without
// running the body, so it lands on 3 (not 2) after exactly 2 executed
// iterations — this is what original_source's eval() does, since
// *position += 1 happens unconditionally before the exit check.
func TestScanEarlyExitOnCondition(t *testing.T) {
	body := plan.NewFuncBody(
		[]fact.Fact{fact.New(tensor.Bool), fact.New(tensor.Int64)},
		func(_ context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
			counter, err := inputs[1].ScalarInt64()
			if err != nil {
				return nil, err
			}
			counter++
			return []*tensor.Tensor{tensor.ScalarBool0D(counter >= 2), tensor.Scalar0D(counter)}, nil
		},
	)

	op := &Op{
		NewBody: func() plan.Body { return body },
		InputMapping: []InputMapping{
			State{Initializer: Value{Tensor: tensor.ScalarBool0D(false)}},
			State{Initializer: Value{Tensor: tensor.Scalar0D(0)}},
		},
		OutputMapping: []OutputMapping{
			{State: true},
			{State: true, LastValueSlot: intp(0)},
		},
		ExitCondition: ExitCondition{ConditionFromState: intp(0)},
	}

	d := op.State()
	outputs, err := d.Eval(context.Background(), newSession(), nil)
	require.NoError(t, err)
	v, err := outputs[0].ScalarInt64()
	require.NoError(t, err)
	require.Equal(t, int64(2), v)
	require.Equal(t, 3, d.position)
}

// TestScanSkipReducesExecutedIterations is scenario S5: skip=2 against
// a trip count of 5 executes only 3 iterations (i=2,3,4), each body
// call seeing the real, unfrozen loop counter rather than a
// skip-relative one starting over at 0 — so the first executed call's
// IterIndex is 2, matching original_source's loop where `i` is a plain
// Rust range iterator that keeps advancing through skipped passes.
func TestScanSkipReducesExecutedIterations(t *testing.T) {
	var seenIndices []int64
	body := plan.NewFuncBody(
		[]fact.Fact{fact.New(tensor.Int64)},
		func(_ context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
			idx, err := inputs[0].ScalarInt64()
			if err != nil {
				return nil, err
			}
			seenIndices = append(seenIndices, idx)
			return []*tensor.Tensor{tensor.Scalar0D(idx)}, nil
		},
	)

	op := &Op{
		Skip:    2,
		NewBody: func() plan.Body { return body },
		InputMapping: []InputMapping{
			IterIndex{},
		},
		OutputMapping: []OutputMapping{
			{LastValueSlot: intp(0)},
		},
		ExitCondition: ExitCondition{TripCountFromInput: intp(0)},
	}

	d := op.State()
	outputs, err := d.Eval(context.Background(), newSession(), []*tensor.Tensor{tensor.Scalar0D(5)})
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3, 4}, seenIndices)
	v, err := outputs[0].ScalarInt64()
	require.NoError(t, err)
	require.Equal(t, int64(4), v)
}

// TestScanFreezeUnfreezeResumesIdentically is property 3 from the
// universal properties: freezing mid-loop and resuming from the frozen
// snapshot must produce the same final result as letting the same
// driver run uninterrupted.
func TestScanFreezeUnfreezeResumesIdentically(t *testing.T) {
	newOp := func() *Op {
		body := plan.NewFuncBody(
			[]fact.Fact{fact.New(tensor.Int64)},
			func(_ context.Context, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
				idx, err := inputs[0].ScalarInt64()
				if err != nil {
					return nil, err
				}
				s, err := inputs[1].ScalarInt64()
				if err != nil {
					return nil, err
				}
				return []*tensor.Tensor{tensor.Scalar0D(s + idx)}, nil
			},
		)
		return &Op{
			NewBody: func() plan.Body { return body },
			InputMapping: []InputMapping{
				IterIndex{},
				State{Initializer: FromInput{Slot: 0}},
			},
			OutputMapping: []OutputMapping{
				{State: true, LastValueSlot: intp(0)},
			},
			ExitCondition: ExitCondition{TripCountFromInput: intp(1)},
		}
	}

	uninterrupted := newOp().State()
	want, err := uninterrupted.Eval(context.Background(), newSession(), []*tensor.Tensor{tensor.Scalar0D(0), tensor.Scalar0D(5)})
	require.NoError(t, err)
	wantVal, err := want[0].ScalarInt64()
	require.NoError(t, err)

	// Scan's Driver runs to completion within a single Eval call (there
	// is no mid-loop yield point to freeze from), so the freeze/resume
	// property is exercised across two separate invocations sharing a
	// trip count: the first invocation's frozen state feeds the second,
	// which must pick up where hidden state and position left off.
	first := newOp().State()
	_, err = first.Eval(context.Background(), newSession(), []*tensor.Tensor{tensor.Scalar0D(0), tensor.Scalar0D(0)})
	require.NoError(t, err)
	frozen := first.Freeze()

	resumed := frozen.Unfreeze()
	got, err := resumed.Eval(context.Background(), newSession(), []*tensor.Tensor{tensor.Scalar0D(0), tensor.Scalar0D(5)})
	require.NoError(t, err)
	gotVal, err := got[0].ScalarInt64()
	require.NoError(t, err)
	require.Equal(t, wantVal, gotVal)
}

func intp(i int) *int { return &i }

func fullDimHint(n int64) *dim.TDim {
	d := dim.Lit(n)
	return &d
}

// newFloat32Tensor builds a rank-1 Float32 tensor from literal values.
func newFloat32Tensor(t *testing.T, vals ...float32) *tensor.Tensor {
	t.Helper()
	tn, err := tensor.New(tensor.Float32, len(vals))
	require.NoError(t, err)
	for i, v := range vals {
		require.NoError(t, tn.SetFloat32(v, i))
	}
	return tn
}

// srcData reads back a rank-1 Float32 tensor's elements for assertions.
func srcData(t *tensor.Tensor) []float32 {
	out := make([]float32, t.Len())
	for i := range out {
		v, err := t.GetFloat32(i)
		if err != nil {
			panic(err)
		}
		out[i] = v
	}
	return out
}
