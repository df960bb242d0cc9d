package matrix

import (
	"fmt"
	"math"

	gomatrix "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Identity returns n x n identity matrix.
// It returns error if n is non-positive.
func Identity(n int) (mat.Matrix, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid identity dimension: %d", n)
	}

	return gomatrix.NewDenseValIdentity(n, 1.0)
}

// Symmetrize returns the symmetric part of the square matrix m i.e. (m + m')/2.
// It panics if m is not square.
func Symmetrize(m mat.Matrix) *mat.SymDense {
	rows, cols := m.Dims()
	if rows != cols {
		panic(mat.ErrSquare)
	}

	sym := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < cols; j++ {
			sym.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return sym
}

// MaxAsymmetry returns max(|m - m'|) of the square matrix m.
// It panics if m is not square.
func MaxAsymmetry(m mat.Matrix) float64 {
	rows, cols := m.Dims()
	if rows != cols {
		panic(mat.ErrSquare)
	}

	var d float64
	for i := 0; i < rows; i++ {
		for j := i + 1; j < cols; j++ {
			d = math.Max(d, math.Abs(m.At(i, j)-m.At(j, i)))
		}
	}

	return d
}

// RowSums returns a slice containing m row sums.
// It panics if m is nil.
func RowSums(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	sum := make([]float64, rows)

	for i := 0; i < rows; i++ {
		sum[i] = floats.Sum(m.RawRowView(i))
	}

	return sum
}

// ColSums returns a slice containing m column sums.
// It panics if m is nil.
func ColSums(m *mat.Dense) []float64 {
	_, cols := m.Dims()
	sum := make([]float64, cols)

	for i := 0; i < cols; i++ {
		sum[i] = mat.Sum(m.ColView(i))
	}

	return sum
}
