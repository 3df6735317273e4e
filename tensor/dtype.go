package tensor

// DType identifies the datum type stored in a Tensor. The Scan core only
// needs to move bytes and occasionally interpret a 0-D tensor as a
// scalar, so the set is kept small and closed.
type DType int

const (
	// Float32 tensors carry the body's numeric payload.
	Float32 DType = iota
	// Int64 tensors carry trip counts and the iteration-index input.
	Int64
	// Bool tensors carry loop-exit condition scalars.
	Bool
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}
