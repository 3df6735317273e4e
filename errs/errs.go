// Package errs holds the error taxonomy shared by the tensor, dim, and
// scan packages. Sentinel values are wrapped with fmt.Errorf at call
// sites rather than compared directly, the same way pkg/bitnet/model
// wraps ErrAttentionWeights, ErrFFNForward, and friends.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrBadTripCount is returned when an ExitCondition's trip_count_from_input
	// refers to a non-scalar, wrong-datum, or negative value.
	ErrBadTripCount = errors.New("scan: trip count input is not a valid non-negative scalar")
	// ErrBadCondition is returned when condition_from_state is out of range
	// or the referenced hidden-state entry is not a scalar boolean.
	ErrBadCondition = errors.New("scan: condition_from_state is invalid or not a scalar boolean")
	// ErrSliceMismatch is returned when a Scan input mapping references an
	// out-of-range axis, or a zero-length axis with a non-zero chunk.
	ErrSliceMismatch = errors.New("scan: scan axis is out of range or incompatible with chunk")
	// ErrMappingArity is returned when the number of input/output mappings
	// does not match the body's actual input/output count.
	ErrMappingArity = errors.New("scan: mapping count does not match body arity")
	// ErrBodyFailure wraps any error raised by the nested body executor.
	ErrBodyFailure = errors.New("scan: evaluating inner body")
	// ErrShapeResolutionFailure is returned when a symbolic dimension
	// cannot be resolved to a concrete integer given the session environment.
	ErrShapeResolutionFailure = errors.New("scan: could not resolve symbolic shape")
	// ErrInvalidScanInfo is returned when a ScanInfo triple violates its
	// own invariants (axis < rank, chunk != 0) independent of any input.
	ErrInvalidScanInfo = errors.New("scan: invalid ScanInfo")
	// ErrOutputSlotsNotDense is returned when outer output slots have
	// holes or duplicates (invariant 5 in the data model).
	ErrOutputSlotsNotDense = errors.New("scan: outer output slots are not dense")
	// ErrStateArityMismatch is returned when State input/output mapping
	// counts disagree (invariant 2).
	ErrStateArityMismatch = errors.New("scan: state input/output mapping counts disagree")
	// ErrDriverReused is returned when Eval is called again on a driver
	// that previously failed; per spec its post-failure state is undefined.
	ErrDriverReused = errors.New("scan: driver reused after a failed eval")
)

// IterationError augments ErrBodyFailure with the iteration index at
// which the nested body executor failed, mirroring the "Evaluating
// inner body" context tract attaches in lir.rs, generalized to carry
// structured data instead of only a formatted string.
type IterationError struct {
	Iteration int
	Err       error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("scan: evaluating inner body at iteration %d: %v", e.Iteration, e.Err)
}

func (e *IterationError) Unwrap() error {
	return e.Err
}

// WrapBodyFailure builds an IterationError rooted at ErrBodyFailure.
func WrapBodyFailure(iteration int, cause error) error {
	return &IterationError{Iteration: iteration, Err: fmt.Errorf("%w: %v", ErrBodyFailure, cause)}
}
