package model

import (
	"fmt"
	"sync/atomic"

	filter "github.com/milosgajdos/go-kalman"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// PropFunc propagates state x by timestep dt
type PropFunc func(x mat.Vector, dt float64) mat.Vector

// ObsFunc returns the output observed in state x
type ObsFunc func(x mat.Vector, dt float64) mat.Vector

// Numeric is a nonlinear model of a dynamical system defined only by its
// propagation and observation functions. Its state and output matrices are
// Jacobians of these functions approximated with central finite differences.
type Numeric struct {
	nx   int
	ny   int
	prop PropFunc
	obs  ObsFunc
	q    *mat.SymDense
	r    *mat.SymDense
}

// NewNumeric creates new Numeric model and returns it.
// The state and output dimensions are inferred from the process noise
// covariance q and observation noise covariance r, respectively.
// It returns error if either function is nil or if they do not return vectors
// of the dimensions implied by q and r.
func NewNumeric(prop PropFunc, obs ObsFunc, q, r mat.Symmetric) (*Numeric, error) {
	if prop == nil || obs == nil {
		return nil, fmt.Errorf("propagation and observation functions must be defined")
	}

	if q == nil || r == nil {
		return nil, fmt.Errorf("noise covariances must be defined")
	}

	nx, ny := q.SymmetricDim(), r.SymmetricDim()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	x := mat.NewVecDense(nx, nil)
	if v := prop(x, 0); v == nil || v.Len() != nx {
		return nil, fmt.Errorf("invalid propagation function output dimension")
	}

	if v := obs(x, 0); v == nil || v.Len() != ny {
		return nil, fmt.Errorf("invalid observation function output dimension")
	}

	qc := mat.NewSymDense(nx, nil)
	qc.CopySym(q)

	rc := mat.NewSymDense(ny, nil)
	rc.CopySym(r)

	return &Numeric{
		nx:   nx,
		ny:   ny,
		prop: prop,
		obs:  obs,
		q:    qc,
		r:    rc,
	}, nil
}

// Dims returns state and output dimensions of the model
func (n *Numeric) Dims() (nx, ny int) {
	return n.nx, n.ny
}

// Propagate propagates the mean of x by dt
func (n *Numeric) Propagate(x filter.Estimate, dt float64) (mat.Vector, error) {
	v := n.prop(x.Val(), dt)
	if v == nil || v.Len() != n.nx {
		return nil, fmt.Errorf("invalid propagation function output dimension")
	}

	return v, nil
}

// Observe returns the output observed in the mean of x
func (n *Numeric) Observe(x filter.Estimate, dt float64) (mat.Vector, error) {
	y := n.obs(x.Val(), dt)
	if y == nil || y.Len() != n.ny {
		return nil, fmt.Errorf("invalid observation function output dimension")
	}

	return y, nil
}

// StateMatrix returns propagation Jacobian evaluated at x.
// It returns nil if the propagation function output does not match the state dimension.
func (n *Numeric) StateMatrix(x filter.Estimate, dt float64) mat.Matrix {
	f := mat.NewDense(n.nx, n.nx, nil)
	if !jacobian(f, n.prop, x.Val(), dt) {
		return nil
	}

	return f
}

// OutputMatrix returns observation Jacobian evaluated at x.
// It returns nil if the observation function output does not match the output dimension.
func (n *Numeric) OutputMatrix(x filter.Estimate, dt float64) mat.Matrix {
	h := mat.NewDense(n.ny, n.nx, nil)
	if !jacobian(h, n.obs, x.Val(), dt) {
		return nil
	}

	return h
}

// StateNoiseCov returns process noise covariance
func (n *Numeric) StateNoiseCov(_ filter.Estimate, _ float64) mat.Symmetric {
	q := mat.NewSymDense(n.nx, nil)
	q.CopySym(n.q)

	return q
}

// OutputNoiseCov returns observation noise covariance
func (n *Numeric) OutputNoiseCov(_ filter.Estimate, _ float64) mat.Symmetric {
	r := mat.NewSymDense(n.ny, nil)
	r.CopySym(n.r)

	return r
}

// jacobian stores the Jacobian of fn at x into dst.
// It returns false if fn returns a vector whose length differs from the dst row count.
func jacobian(dst *mat.Dense, fn func(mat.Vector, float64) mat.Vector, x mat.Vector, dt float64) bool {
	var bad atomic.Bool

	fd.Jacobian(dst, func(y, xNow []float64) {
		out := fn(mat.NewVecDense(len(xNow), xNow), dt)
		if out == nil || out.Len() != len(y) {
			bad.Store(true)
			return
		}
		for i := range y {
			y[i] = out.AtVec(i)
		}
	}, mat.Col(nil, 0, x), &fd.JacobianSettings{
		Formula:    fd.Central,
		Concurrent: true,
	})

	return !bad.Load()
}
