package estimate

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Gaussian is a Gaussian state estimate: a mean vector and its covariance
type Gaussian struct {
	// val is estimated value i.e. distribution mean
	val *mat.VecDense
	// cov is estimated covariance
	cov *mat.SymDense
}

// NewGaussian returns Gaussian estimate given val and its covariance cov.
// It returns error if val and cov dimensions do not match.
func NewGaussian(val mat.Vector, cov mat.Symmetric) (*Gaussian, error) {
	if val == nil || cov == nil {
		return nil, fmt.Errorf("invalid estimate: val=%v cov=%v", val, cov)
	}

	rv := val.Len()
	rc := cov.SymmetricDim()

	if rv == 0 || rv != rc {
		return nil, fmt.Errorf("invalid dimensions. Val: %d, Cov: %d x %d", rv, rc, rc)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewSymDense(rc, nil)
	c.CopySym(cov)

	return &Gaussian{
		val: v,
		cov: c,
	}, nil
}

// NewGaussianPrior returns zero mean Gaussian estimate of size n with identity covariance.
// It returns error if n is non-positive.
func NewGaussianPrior(n int) (*Gaussian, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid estimate dimension: %d", n)
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, 1.0)
	}

	return &Gaussian{
		val: mat.NewVecDense(n, nil),
		cov: cov,
	}, nil
}

// Val returns estimated value
func (g *Gaussian) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(g.val)

	return v
}

// Cov returns covariance estimate
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Len returns the dimension of the estimated state
func (g *Gaussian) Len() int {
	return g.val.Len()
}

// Clone returns a deep copy of g
func (g *Gaussian) Clone() *Gaussian {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return &Gaussian{
		val: mat.VecDenseCopyOf(g.val),
		cov: cov,
	}
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nVal=%v\nCov=%v\n}",
		mat.Formatted(g.val.T(), mat.Prefix("    "), mat.Squeeze()),
		mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
