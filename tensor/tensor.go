// Package tensor implements the N-dimensional array data structure the
// Scan execution core slices, assigns into, and extracts scalars from.
// It is a deliberately small rework of pkg/bitnet/tensor.Tensor: the
// same row-major shape/stride bookkeeping and calculateIndex/
// calculateIndices helpers, generalized from a fixed ternary int8
// payload to the three datum types Scan actually needs (Float32,
// Int64, Bool), and stripped of per-tensor locking because a Driver is
// documented non-concurrent (spec §5) and every Tensor it touches is
// either freshly allocated or exclusively owned for the iteration.
package tensor

import (
	"fmt"

	"github.com/hyperifyio/scanrt/errs"
)

// Tensor is an N-dimensional array of a single DType, stored flat in
// row-major order with precomputed strides.
type Tensor struct {
	dtype  DType
	shape  []int
	stride []int

	f32 []float32
	i64 []int64
	b   []bool
}

// New allocates a zero-valued tensor of the given shape. A zero-valued
// payload stands in for "uninitialized" throughout this package: Go
// gives no raw-uninitialized allocation, so tails left untouched by
// Assign simply read back as the DType's zero value rather than
// garbage, which is semantically safe per spec §9's "Uninitialized
// tails" note.
func New(dtype DType, shape ...int) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("tensor: %w: shape must have at least one dimension", errs.ErrInvalidScanInfo)
	}
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("tensor: invalid shape dimension %v", shape)
		}
	}

	size := 1
	stride := make([]int, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		stride[i] = size
		size *= shape[i]
	}

	t := &Tensor{dtype: dtype, shape: append([]int(nil), shape...), stride: stride}
	switch dtype {
	case Float32:
		t.f32 = make([]float32, size)
	case Int64:
		t.i64 = make([]int64, size)
	case Bool:
		t.b = make([]bool, size)
	default:
		return nil, fmt.Errorf("tensor: unknown dtype %v", dtype)
	}
	return t, nil
}

// Scalar0D builds a 0-dimensional tensor holding a single int64 value,
// the shape Scan feeds IterIndex inputs as.
func Scalar0D(v int64) *Tensor {
	t := &Tensor{dtype: Int64, shape: []int{}, stride: []int{}, i64: []int64{v}}
	return t
}

// ScalarBool0D builds a 0-dimensional boolean scalar tensor.
func ScalarBool0D(v bool) *Tensor {
	return &Tensor{dtype: Bool, shape: []int{}, stride: []int{}, b: []bool{v}}
}

// ScalarFloat320D builds a 0-dimensional float32 scalar tensor.
func ScalarFloat320D(v float32) *Tensor {
	return &Tensor{dtype: Float32, shape: []int{}, stride: []int{}, f32: []float32{v}}
}

// Shape returns the tensor's dimensions. Callers must not mutate it.
func (t *Tensor) Shape() []int { return t.shape }

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.shape) }

// DType returns the tensor's datum type.
func (t *Tensor) DType() DType { return t.dtype }

// Len returns the total element count.
func (t *Tensor) Len() int {
	switch t.dtype {
	case Float32:
		return len(t.f32)
	case Int64:
		return len(t.i64)
	case Bool:
		return len(t.b)
	default:
		return 0
	}
}

// Clone returns a deep, independent copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{dtype: t.dtype, shape: append([]int(nil), t.shape...), stride: append([]int(nil), t.stride...)}
	switch t.dtype {
	case Float32:
		out.f32 = append([]float32(nil), t.f32...)
	case Int64:
		out.i64 = append([]int64(nil), t.i64...)
	case Bool:
		out.b = append([]bool(nil), t.b...)
	}
	return out
}

// ScalarInt64 extracts the tensor's single int64 value. It requires the
// tensor to hold exactly one element.
func (t *Tensor) ScalarInt64() (int64, error) {
	if t.dtype != Int64 {
		return 0, fmt.Errorf("tensor: %w: expected int64 scalar, got %s", errs.ErrBadTripCount, t.dtype)
	}
	if len(t.i64) != 1 {
		return 0, fmt.Errorf("tensor: %w: expected a single-element tensor, got %d elements", errs.ErrBadTripCount, len(t.i64))
	}
	return t.i64[0], nil
}

// ScalarBool extracts the tensor's single bool value.
func (t *Tensor) ScalarBool() (bool, error) {
	if t.dtype != Bool {
		return false, fmt.Errorf("tensor: %w: expected bool scalar, got %s", errs.ErrBadCondition, t.dtype)
	}
	if len(t.b) != 1 {
		return false, fmt.Errorf("tensor: %w: expected a single-element tensor, got %d elements", errs.ErrBadCondition, len(t.b))
	}
	return t.b[0], nil
}

// ScalarFloat32 extracts the tensor's single float32 value.
func (t *Tensor) ScalarFloat32() (float32, error) {
	if t.dtype != Float32 {
		return 0, fmt.Errorf("tensor: expected float32 scalar, got %s", t.dtype)
	}
	if len(t.f32) != 1 {
		return 0, fmt.Errorf("tensor: expected a single-element tensor, got %d elements", len(t.f32))
	}
	return t.f32[0], nil
}

// GetFloat32 reads the element at indices. The tensor must be Float32.
func (t *Tensor) GetFloat32(indices ...int) (float32, error) {
	if t.dtype != Float32 {
		return 0, fmt.Errorf("tensor: GetFloat32 on a %s tensor", t.dtype)
	}
	idx, err := t.calculateIndex(indices)
	if err != nil {
		return 0, err
	}
	return t.f32[idx], nil
}

// SetFloat32 writes the element at indices. The tensor must be Float32.
func (t *Tensor) SetFloat32(value float32, indices ...int) error {
	if t.dtype != Float32 {
		return fmt.Errorf("tensor: SetFloat32 on a %s tensor", t.dtype)
	}
	idx, err := t.calculateIndex(indices)
	if err != nil {
		return err
	}
	t.f32[idx] = value
	return nil
}

// GetInt64 reads the element at indices. The tensor must be Int64.
func (t *Tensor) GetInt64(indices ...int) (int64, error) {
	if t.dtype != Int64 {
		return 0, fmt.Errorf("tensor: GetInt64 on a %s tensor", t.dtype)
	}
	idx, err := t.calculateIndex(indices)
	if err != nil {
		return 0, err
	}
	return t.i64[idx], nil
}

// SetInt64 writes the element at indices. The tensor must be Int64.
func (t *Tensor) SetInt64(value int64, indices ...int) error {
	if t.dtype != Int64 {
		return fmt.Errorf("tensor: SetInt64 on a %s tensor", t.dtype)
	}
	idx, err := t.calculateIndex(indices)
	if err != nil {
		return err
	}
	t.i64[idx] = value
	return nil
}

// GetBool reads the element at indices. The tensor must be Bool.
func (t *Tensor) GetBool(indices ...int) (bool, error) {
	if t.dtype != Bool {
		return false, fmt.Errorf("tensor: GetBool on a %s tensor", t.dtype)
	}
	idx, err := t.calculateIndex(indices)
	if err != nil {
		return false, err
	}
	return t.b[idx], nil
}

// SetBool writes the element at indices. The tensor must be Bool.
func (t *Tensor) SetBool(value bool, indices ...int) error {
	if t.dtype != Bool {
		return fmt.Errorf("tensor: SetBool on a %s tensor", t.dtype)
	}
	idx, err := t.calculateIndex(indices)
	if err != nil {
		return err
	}
	t.b[idx] = value
	return nil
}

// calculateIndex converts multi-dimensional indices to a linear offset,
// ported from pkg/bitnet/tensor.Tensor.calculateIndex.
func (t *Tensor) calculateIndex(indices []int) (int, error) {
	if len(indices) != len(t.shape) {
		return 0, fmt.Errorf("tensor: expected %d indices, got %d", len(t.shape), len(indices))
	}
	index := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			return 0, fmt.Errorf("tensor: index %d out of range for dimension %d (size %d)", idx, i, t.shape[i])
		}
		index += idx * t.stride[i]
	}
	return index, nil
}

// equalShapeExceptAxis checks that every dimension but axis matches between
// two shapes, which is what SliceAssign and friends actually require.
func equalShapeExceptAxis(a, b []int, axis int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if i == axis {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
