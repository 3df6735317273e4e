package dim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiteralArithmetic(t *testing.T) {
	d := Lit(5).MulInt(3)
	v, ok := d.AsLiteral()
	require.True(t, ok)
	require.Equal(t, int64(15), v)
}

func TestDivCeil(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		want int64
	}{
		{"exact", 10, 5, 2},
		{"ragged", 11, 5, 3},
		{"single", 1, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Lit(tt.a).DivCeil(tt.b)
			v, ok := d.AsLiteral()
			require.True(t, ok)
			require.Equal(t, tt.want, v)
			require.Equal(t, tt.want, DivCeilInt(tt.a, tt.b))
		})
	}
}

func TestSymbolEval(t *testing.T) {
	d := Sym("N").MulInt(4)
	_, err := d.Eval(SymbolEnv{})
	require.Error(t, err)

	v, err := d.Eval(SymbolEnv{"N": 7})
	require.NoError(t, err)
	require.Equal(t, int64(28), v)
}
