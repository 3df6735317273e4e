// Package dim implements TDim, the symbolic dimension type used at
// compile time by ShapeSolver (spec.md §4.2) to describe output shapes
// before a concrete session binds every symbol to an integer. It is a
// small, closed algebra ported from original_source's tract::TDim:
// literals, named symbols, integer multiplication, and ceiling
// division, which is exactly what output-shape inference over a Scan
// needs and nothing more.
package dim

import (
	"fmt"

	"github.com/hyperifyio/scanrt/errs"
)

// SymbolEnv maps symbol names to the concrete integers a session has
// bound them to, per spec.md §6 "Symbol resolution".
type SymbolEnv map[string]int64

// Lookup returns the bound value for name, if any.
func (e SymbolEnv) Lookup(name string) (int64, bool) {
	v, ok := e[name]
	return v, ok
}

type kind int

const (
	kindLit kind = iota
	kindSym
	kindMul
	kindDivCeil
)

// TDim is either an integer literal or an expression over a single
// symbol built up by MulInt and DivCeil. Multi-symbol expressions are
// deliberately out of scope: Scan's own dimension algebra (spec.md
// §4.2) only ever multiplies a body's output dimension by an iteration
// count or divides an input dimension by a chunk size, so a single
// pending symbol plus a chain of integer operations is sufficient.
type TDim struct {
	kind kind
	lit  int64
	sym  string
	base *TDim
	by   int64
}

// Lit builds a concrete integer dimension.
func Lit(n int64) TDim {
	return TDim{kind: kindLit, lit: n}
}

// Sym builds a dimension that stands for a named, as-yet-unbound symbol.
func Sym(name string) TDim {
	return TDim{kind: kindSym, sym: name}
}

// MulInt returns a new dimension representing d * n.
func (d TDim) MulInt(n int64) TDim {
	if lit, ok := d.AsLiteral(); ok {
		return Lit(lit * n)
	}
	return TDim{kind: kindMul, base: &d, by: n}
}

// DivCeil returns a new dimension representing ceil(d / by).
func (d TDim) DivCeil(by int64) TDim {
	if by <= 0 {
		return TDim{kind: kindDivCeil, base: &d, by: by}
	}
	if lit, ok := d.AsLiteral(); ok {
		return Lit((lit + by - 1) / by)
	}
	return TDim{kind: kindDivCeil, base: &d, by: by}
}

// AsLiteral reports whether d is already a concrete integer, returning
// it if so.
func (d TDim) AsLiteral() (int64, bool) {
	if d.kind == kindLit {
		return d.lit, true
	}
	return 0, false
}

// Eval resolves d to a concrete integer against env. It fails when a
// symbol the expression depends on is unbound, or when a DivCeil
// divisor is not positive.
func (d TDim) Eval(env SymbolEnv) (int64, error) {
	switch d.kind {
	case kindLit:
		return d.lit, nil
	case kindSym:
		v, ok := env.Lookup(d.sym)
		if !ok {
			return 0, fmt.Errorf("dim: %w: symbol %q is unbound", errs.ErrShapeResolutionFailure, d.sym)
		}
		return v, nil
	case kindMul:
		base, err := d.base.Eval(env)
		if err != nil {
			return 0, err
		}
		return base * d.by, nil
	case kindDivCeil:
		if d.by <= 0 {
			return 0, fmt.Errorf("dim: %w: cannot divide by %d", errs.ErrShapeResolutionFailure, d.by)
		}
		base, err := d.base.Eval(env)
		if err != nil {
			return 0, err
		}
		return (base + d.by - 1) / d.by, nil
	default:
		return 0, fmt.Errorf("dim: %w: unknown dimension kind", errs.ErrShapeResolutionFailure)
	}
}

// String renders a human-readable form, useful in Op.Info() lines.
func (d TDim) String() string {
	switch d.kind {
	case kindLit:
		return fmt.Sprintf("%d", d.lit)
	case kindSym:
		return d.sym
	case kindMul:
		return fmt.Sprintf("(%s*%d)", d.base.String(), d.by)
	case kindDivCeil:
		return fmt.Sprintf("ceil(%s/%d)", d.base.String(), d.by)
	default:
		return "?"
	}
}

// DivCeilInt computes ceil(a/b) for plain integers, the same rounding
// rule TDim.DivCeil uses for literals, exposed for callers (the
// driver's iters computation) that work directly with ints instead of
// wrapping them in a TDim. It returns 0 when b is not positive.
func DivCeilInt(a, b int64) int64 {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
