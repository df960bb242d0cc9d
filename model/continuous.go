package model

import (
	"fmt"

	filter "github.com/milosgajdos/go-kalman"
	"gonum.org/v1/gonum/mat"
)

// Continuous is a linear, continuous-time model of a dynamical system
//
//	dx/dt = A*x + w(t),  w ~ N(0, Qc)
//	y     = H*x + v,     v ~ N(0, R)
//
// which is discretized on every call using the supplied timestep dt:
// F = exp(A*dt) and Q = Qc*dt.
type Continuous struct {
	// A is system matrix
	A *mat.Dense
	// H is observation matrix
	H *mat.Dense
	// Qc is process noise spectral density
	Qc *mat.SymDense
	// R is observation noise covariance
	R *mat.SymDense
}

// NewContinuous creates a linear continuous-time model and returns it.
// It returns error if the model matrices have inconsistent dimensions.
func NewContinuous(A, H mat.Matrix, Qc, R mat.Symmetric) (*Continuous, error) {
	if A == nil {
		return nil, fmt.Errorf("system matrix must be defined for a model")
	}

	// LTI validates the same dimension constraints
	lti, err := NewLTI(A, H, Qc, R)
	if err != nil {
		return nil, err
	}

	return &Continuous{A: lti.F, H: lti.H, Qc: lti.Q, R: lti.R}, nil
}

// Dims returns state and output dimensions of the model
func (c *Continuous) Dims() (nx, ny int) {
	nx, _ = c.A.Dims()
	ny, _ = c.H.Dims()

	return nx, ny
}

// StateMatrix returns state transition matrix exp(A*dt)
func (c *Continuous) StateMatrix(_ filter.Estimate, dt float64) mat.Matrix {
	adt := &mat.Dense{}
	adt.Scale(dt, c.A)

	f := &mat.Dense{}
	f.Exp(adt)

	return f
}

// OutputMatrix returns observation matrix H
func (c *Continuous) OutputMatrix(_ filter.Estimate, _ float64) mat.Matrix {
	return mat.DenseCopyOf(c.H)
}

// StateNoiseCov returns process noise covariance Qc*dt
func (c *Continuous) StateNoiseCov(_ filter.Estimate, dt float64) mat.Symmetric {
	q := mat.NewSymDense(c.Qc.SymmetricDim(), nil)
	q.ScaleSym(dt, c.Qc)

	return q
}

// OutputNoiseCov returns observation noise covariance R
func (c *Continuous) OutputNoiseCov(_ filter.Estimate, _ float64) mat.Symmetric {
	r := mat.NewSymDense(c.R.SymmetricDim(), nil)
	r.CopySym(c.R)

	return r
}
