package model

import (
	"fmt"

	filter "github.com/milosgajdos/go-kalman"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// LTI is a linear time-invariant model of a dynamical system.
// Its matrices do not depend on the estimated state nor the timestep:
//
//	x[n+1] = F*x[n] + w[n],  w ~ N(0, Q)
//	y[n]   = H*x[n] + v[n],  v ~ N(0, R)
type LTI struct {
	// F is state transition matrix
	F *mat.Dense
	// H is observation matrix
	H *mat.Dense
	// Q is process noise covariance
	Q *mat.SymDense
	// R is observation noise covariance
	R *mat.SymDense
}

// NewLTI creates new LTI model and returns it.
// It returns error listing every matrix whose dimensions are inconsistent with F and H.
func NewLTI(F, H mat.Matrix, Q, R mat.Symmetric) (*LTI, error) {
	if F == nil || H == nil || Q == nil || R == nil {
		return nil, fmt.Errorf("all LTI model matrices must be defined")
	}

	var err error

	nx, cols := F.Dims()
	if nx == 0 || nx != cols {
		err = multierr.Append(err, fmt.Errorf("invalid state matrix dimensions: [%d x %d]", nx, cols))
	}

	ny, cols := H.Dims()
	if ny == 0 || cols != nx {
		err = multierr.Append(err, fmt.Errorf("invalid observation matrix dimensions: [%d x %d]", ny, cols))
	}

	if n := Q.SymmetricDim(); n != nx {
		err = multierr.Append(err, fmt.Errorf("invalid state noise dimension: %d != %d", n, nx))
	}

	if n := R.SymmetricDim(); n != ny {
		err = multierr.Append(err, fmt.Errorf("invalid output noise dimension: %d != %d", n, ny))
	}

	if err != nil {
		return nil, err
	}

	q := mat.NewSymDense(nx, nil)
	q.CopySym(Q)

	r := mat.NewSymDense(ny, nil)
	r.CopySym(R)

	return &LTI{
		F: mat.DenseCopyOf(F),
		H: mat.DenseCopyOf(H),
		Q: q,
		R: r,
	}, nil
}

// Dims returns state and output dimensions of the model
func (l *LTI) Dims() (nx, ny int) {
	nx, _ = l.F.Dims()
	ny, _ = l.H.Dims()

	return nx, ny
}

// StateMatrix returns state transition matrix F
func (l *LTI) StateMatrix(_ filter.Estimate, _ float64) mat.Matrix {
	return mat.DenseCopyOf(l.F)
}

// OutputMatrix returns observation matrix H
func (l *LTI) OutputMatrix(_ filter.Estimate, _ float64) mat.Matrix {
	return mat.DenseCopyOf(l.H)
}

// StateNoiseCov returns process noise covariance Q
func (l *LTI) StateNoiseCov(_ filter.Estimate, _ float64) mat.Symmetric {
	q := mat.NewSymDense(l.Q.SymmetricDim(), nil)
	q.CopySym(l.Q)

	return q
}

// OutputNoiseCov returns observation noise covariance R
func (l *LTI) OutputNoiseCov(_ filter.Estimate, _ float64) mat.Symmetric {
	r := mat.NewSymDense(l.R.SymmetricDim(), nil)
	r.CopySym(l.R)

	return r
}
