package tensor

import "fmt"

// copyAxisRange copies count elements along axis, starting at dstStart
// in dst and srcStart in src, holding every other dimension's index in
// lock-step. It is the shared workhorse behind Slice and Assign: both
// only ever need a contiguous run along one axis with every other axis
// held at the same position in source and destination.
func copyAxisRange(dst *Tensor, axis, dstStart int, src *Tensor, srcStart, count int) error {
	if axis < 0 || axis >= len(dst.shape) || axis >= len(src.shape) {
		return fmt.Errorf("tensor: axis %d out of range", axis)
	}
	if !equalShapeExceptAxis(dst.shape, src.shape, axis) {
		return fmt.Errorf("tensor: shapes %v and %v disagree outside axis %d", dst.shape, src.shape, axis)
	}
	if count <= 0 {
		return nil
	}
	if dstStart < 0 || dstStart+count > dst.shape[axis] {
		return fmt.Errorf("tensor: destination range [%d,%d) out of bounds for axis size %d", dstStart, dstStart+count, dst.shape[axis])
	}
	if srcStart < 0 || srcStart+count > src.shape[axis] {
		return fmt.Errorf("tensor: source range [%d,%d) out of bounds for axis size %d", srcStart, srcStart+count, src.shape[axis])
	}

	// Odometer over every dimension except axis.
	outer := make([]int, 0, len(dst.shape)-1)
	for i := range dst.shape {
		if i != axis {
			outer = append(outer, dst.shape[i])
		}
	}
	idx := make([]int, len(outer))
	for {
		dstIdx := make([]int, len(dst.shape))
		srcIdx := make([]int, len(src.shape))
		oi := 0
		for i := range dst.shape {
			if i == axis {
				continue
			}
			dstIdx[i] = idx[oi]
			srcIdx[i] = idx[oi]
			oi++
		}
		for c := 0; c < count; c++ {
			dstIdx[axis] = dstStart + c
			srcIdx[axis] = srcStart + c
			dOff, err := dst.calculateIndex(dstIdx)
			if err != nil {
				return err
			}
			sOff, err := src.calculateIndex(srcIdx)
			if err != nil {
				return err
			}
			copyElement(dst, dOff, src, sOff)
		}

		if len(outer) == 0 {
			break
		}
		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < outer[pos] {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}
	return nil
}

func copyElement(dst *Tensor, dstIdx int, src *Tensor, srcIdx int) {
	switch dst.dtype {
	case Float32:
		dst.f32[dstIdx] = src.f32[srcIdx]
	case Int64:
		dst.i64[dstIdx] = src.i64[srcIdx]
	case Bool:
		dst.b[dstIdx] = src.b[srcIdx]
	}
}

// SliceAssign copies a contiguous range of indices along axis from src
// into dst, leaving every element outside the destination range
// untouched. This is the tensor-level primitive spec.md §3 requires;
// Slice and Assign in this package build the Scan-specific per-iteration
// behavior (forward/reverse/ragged chunking) on top of it.
func (t *Tensor) SliceAssign(axis int, dstRange [2]int, src *Tensor, srcRange [2]int) error {
	dCount := dstRange[1] - dstRange[0]
	sCount := srcRange[1] - srcRange[0]
	if dCount != sCount {
		return fmt.Errorf("tensor: destination range length %d does not match source range length %d", dCount, sCount)
	}
	return copyAxisRange(t, axis, dstRange[0], src, srcRange[0], dCount)
}
