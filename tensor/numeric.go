package tensor

import "golang.org/x/exp/constraints"

// Min and Max are the small numeric-clamp helpers Slice/Assign and
// their callers use to keep ragged-tail and placeholder-shape
// arithmetic readable, replacing the teacher's hand-rolled
// int32-only utils.Min/utils.Max (pkg/bitnet/internal/math/utils.go)
// with one generic version over any integer type.
func Min[T constraints.Integer](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}
