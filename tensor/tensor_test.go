package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		dtype   DType
		shape   []int
		wantErr bool
	}{
		{name: "valid 1D float32", dtype: Float32, shape: []int{5}},
		{name: "valid 2D int64", dtype: Int64, shape: []int{2, 3}},
		{name: "valid 3D bool", dtype: Bool, shape: []int{2, 3, 4}},
		{name: "zero-length axis allowed", dtype: Float32, shape: []int{0, 3}},
		{name: "negative dimension", dtype: Float32, shape: []int{-1, 2}, wantErr: true},
		{name: "no dimensions", dtype: Float32, shape: []int{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.dtype, tt.shape...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.shape, got.Shape())
			require.Equal(t, tt.dtype, got.DType())
		})
	}
}

func mustFloat32(t *testing.T, shape []int, data []float32) *Tensor {
	t.Helper()
	tn, err := New(Float32, shape...)
	require.NoError(t, err)
	copy(tn.f32, data)
	return tn
}

func TestSliceForward(t *testing.T) {
	src := mustFloat32(t, []int{5}, []float32{7, 11, 13, 17, 19})

	got, err := Slice(src, 0, 0, 1)
	require.NoError(t, err)
	require.Equal(t, []float32{7}, got.f32)

	got, err = Slice(src, 0, 1, 2)
	require.NoError(t, err)
	require.Equal(t, []float32{13, 17}, got.f32)
}

func TestSliceForwardRaggedTail(t *testing.T) {
	src := mustFloat32(t, []int{5}, []float32{1, 2, 3, 4, 5})

	// chunk=2, 3 iterations: [1,2] [3,4] [5,_]
	got, err := Slice(src, 0, 2, 2)
	require.NoError(t, err)
	require.Equal(t, float32(5), got.f32[0])
	require.Equal(t, float32(0), got.f32[1]) // untouched tail reads back as zero value
}

func TestSliceReverseRagged(t *testing.T) {
	src := mustFloat32(t, []int{5}, []float32{1, 2, 3, 4, 5})

	// chunk=-2, src[j] holds value j+1. dst[k-1-j] = src[full-1-(i*k+j)],
	// so iteration 0 reads dst=[src[3],src[4]]=[4,5], iteration 1 reads
	// dst=[src[1],src[2]]=[2,3], iteration 2 only has src[0] available
	// (the i*k+1=5 slot is out of range and left untouched).
	got, err := Slice(src, 0, 0, -2)
	require.NoError(t, err)
	require.Equal(t, []float32{4, 5}, got.f32)

	got, err = Slice(src, 0, 1, -2)
	require.NoError(t, err)
	require.Equal(t, []float32{2, 3}, got.f32)

	got, err = Slice(src, 0, 2, -2)
	require.NoError(t, err)
	require.Equal(t, float32(1), got.f32[1])
	require.Equal(t, float32(0), got.f32[0])
}

func TestSliceInvalidAxis(t *testing.T) {
	src := mustFloat32(t, []int{5}, []float32{1, 2, 3, 4, 5})
	_, err := Slice(src, 1, 0, 1)
	require.Error(t, err)
}

func TestSliceZeroChunk(t *testing.T) {
	src := mustFloat32(t, []int{5}, []float32{1, 2, 3, 4, 5})
	_, err := Slice(src, 0, 0, 0)
	require.Error(t, err)
}

func TestAssignForward(t *testing.T) {
	acc, err := New(Float32, 5)
	require.NoError(t, err)
	e0 := mustFloat32(t, []int{1}, []float32{7})
	require.NoError(t, Assign(acc, 0, e0, 0, false))
	e1 := mustFloat32(t, []int{1}, []float32{11})
	require.NoError(t, Assign(acc, 0, e1, 1, false))
	require.Equal(t, float32(7), acc.f32[0])
	require.Equal(t, float32(11), acc.f32[1])
}

func TestAssignReverseRagged(t *testing.T) {
	// accumulator length 6, reverse writes with chunk 2: iterations 0,1,2
	acc, err := New(Float32, 6)
	require.NoError(t, err)
	e0 := mustFloat32(t, []int{2}, []float32{5, 4})
	require.NoError(t, Assign(acc, 0, e0, 0, true))
	e1 := mustFloat32(t, []int{2}, []float32{3, 2})
	require.NoError(t, Assign(acc, 0, e1, 1, true))
	e2 := mustFloat32(t, []int{2}, []float32{1, 0})
	require.NoError(t, Assign(acc, 0, e2, 2, true))

	// offsets: i=0 -> full-1-0*2=5, count=min(2,6-5)=1 -> writes index5 = e0[0]=5
	// i=1 -> full-1-2=3, count=min(2,3)=2 -> writes idx3=e1[0]=3, idx4=e1[1]=2
	// i=2 -> full-1-4=1, count=min(2,5)=2 -> writes idx1=e2[0]=1, idx2=e2[1]=0
	require.Equal(t, float32(0), acc.f32[0])
	require.Equal(t, float32(1), acc.f32[1])
	require.Equal(t, float32(0), acc.f32[2])
	require.Equal(t, float32(3), acc.f32[3])
	require.Equal(t, float32(2), acc.f32[4])
	require.Equal(t, float32(5), acc.f32[5])
}

func TestScalarInt64(t *testing.T) {
	s := Scalar0D(3)
	v, err := s.ScalarInt64()
	require.NoError(t, err)
	require.Equal(t, int64(3), v)
}

func TestScalarBool(t *testing.T) {
	s := ScalarBool0D(true)
	v, err := s.ScalarBool()
	require.NoError(t, err)
	require.True(t, v)
}

func TestClone(t *testing.T) {
	src := mustFloat32(t, []int{3}, []float32{1, 2, 3})
	clone := src.Clone()
	clone.f32[0] = 99
	require.Equal(t, float32(1), src.f32[0])
	require.Equal(t, float32(99), clone.f32[0])
}
