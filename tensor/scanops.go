package tensor

import (
	"fmt"

	"github.com/hyperifyio/scanrt/errs"
)

// Slice reads the per-iteration input chunk at iteration i along axis,
// per spec.md §4.1. chunk's sign selects direction; its magnitude
// selects width. Positions a ragged forward tail or an exhausted
// reverse tail doesn't reach are left at the zero value, standing in
// for "uninitialized" (see New and spec.md §9).
//
// Ported from original_source/core/src/ops/scan/lir.rs's
// State::slice_input.
func Slice(src *Tensor, axis, i, chunk int) (*Tensor, error) {
	if axis < 0 || axis >= src.Rank() {
		return nil, fmt.Errorf("tensor: %w: axis %d out of range for rank %d", errs.ErrSliceMismatch, axis, src.Rank())
	}
	if chunk == 0 {
		return nil, fmt.Errorf("tensor: %w: chunk must not be zero", errs.ErrSliceMismatch)
	}
	k := chunk
	if k < 0 {
		k = -k
	}
	full := src.shape[axis]
	if full == 0 {
		return nil, fmt.Errorf("tensor: %w: axis %d has zero length", errs.ErrSliceMismatch, axis)
	}

	shape := append([]int(nil), src.shape...)
	shape[axis] = k
	dst, err := New(src.dtype, shape...)
	if err != nil {
		return nil, err
	}

	if chunk > 0 {
		start := i * k
		if (i+1)*k > full {
			remain := Max(full-start, 0)
			if remain > 0 {
				if err := copyAxisRange(dst, axis, 0, src, start, remain); err != nil {
					return nil, err
				}
			}
			return dst, nil
		}
		if err := copyAxisRange(dst, axis, 0, src, start, k); err != nil {
			return nil, err
		}
		return dst, nil
	}

	// Reverse: for j = 0..k, if i*k+j < full, write dst[k-1-j] from src[full-1-(i*k+j)].
	for j := 0; j < k; j++ {
		if i*k+j >= full {
			continue
		}
		dstIx := k - 1 - j
		srcIx := full - 1 - (i*k + j)
		if err := copyAxisRange(dst, axis, dstIx, src, srcIx, 1); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// Assign places a per-iteration output chunk elem into accumulator dst
// at iteration i along axis, per spec.md §4.1. backward selects whether
// the accumulator is being filled front-to-back or back-to-front; count
// is clamped so ragged tails never overrun the accumulator, matching
// original_source/core/src/ops/scan/lir.rs's State::assign_output.
func Assign(dst *Tensor, axis int, elem *Tensor, i int, backward bool) error {
	if axis < 0 || axis >= dst.Rank() {
		return fmt.Errorf("tensor: %w: axis %d out of range for rank %d", errs.ErrSliceMismatch, axis, dst.Rank())
	}
	full := dst.shape[axis]
	w := elem.shape[axis]

	var offset int
	if backward {
		offset = full - 1 - i*w
	} else {
		offset = i * w
	}

	count := Min(w, full-offset)
	if count <= 0 || offset < 0 {
		return nil
	}
	return copyAxisRange(dst, axis, offset, elem, 0, count)
}
