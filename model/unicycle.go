package model

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-kalman"
	"gonum.org/v1/gonum/mat"
)

// Unicycle is a nonlinear model of a planar target moving with
// speed v along heading theta which turns at a constant rate omega.
// The state vector is [x, y, theta, v, omega] and only the position [x, y] is observed.
//
// Unicycle propagates the state through the nonlinear kinematics and
// supplies their Jacobian about the current estimate as the state matrix.
type Unicycle struct {
	h *mat.Dense
	q *mat.SymDense
	r *mat.SymDense
}

// NewUnicycle creates new Unicycle model and returns it.
// q and r scale identity process and observation noise covariances, respectively.
// It returns error if either q or r is negative.
func NewUnicycle(q, r float64) (*Unicycle, error) {
	if q < 0 || r < 0 {
		return nil, fmt.Errorf("invalid noise scale: q=%v r=%v", q, r)
	}

	h := mat.NewDense(2, 5, []float64{
		1.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 1.0, 0.0, 0.0, 0.0,
	})

	return &Unicycle{
		h: h,
		q: scaledEye(5, q),
		r: scaledEye(2, r),
	}, nil
}

// Dims returns state and output dimensions of the model
func (u *Unicycle) Dims() (nx, ny int) {
	return 5, 2
}

// Propagate propagates the mean of x through the unicycle kinematics by dt
func (u *Unicycle) Propagate(x filter.Estimate, dt float64) (mat.Vector, error) {
	s := x.Val()
	if s.Len() != 5 {
		return nil, fmt.Errorf("invalid state vector: %d", s.Len())
	}

	theta, v, omega := s.AtVec(2), s.AtVec(3), s.AtVec(4)

	return mat.NewVecDense(5, []float64{
		s.AtVec(0) + dt*v*math.Cos(theta),
		s.AtVec(1) + dt*v*math.Sin(theta),
		theta + dt*omega,
		v,
		omega,
	}), nil
}

// StateMatrix returns the Jacobian of the unicycle kinematics evaluated at x
func (u *Unicycle) StateMatrix(x filter.Estimate, dt float64) mat.Matrix {
	s := x.Val()
	theta, v := s.AtVec(2), s.AtVec(3)
	sin, cos := math.Sincos(theta)

	f := mat.NewDense(5, 5, nil)
	for i := 0; i < 5; i++ {
		f.Set(i, i, 1.0)
	}
	f.Set(0, 2, -dt*v*sin)
	f.Set(0, 3, dt*cos)
	f.Set(1, 2, dt*v*cos)
	f.Set(1, 3, dt*sin)
	f.Set(2, 4, dt)

	return f
}

// OutputMatrix returns observation matrix
func (u *Unicycle) OutputMatrix(_ filter.Estimate, _ float64) mat.Matrix {
	return mat.DenseCopyOf(u.h)
}

// StateNoiseCov returns process noise covariance
func (u *Unicycle) StateNoiseCov(_ filter.Estimate, _ float64) mat.Symmetric {
	q := mat.NewSymDense(5, nil)
	q.CopySym(u.q)

	return q
}

// OutputNoiseCov returns observation noise covariance
func (u *Unicycle) OutputNoiseCov(_ filter.Estimate, _ float64) mat.Symmetric {
	r := mat.NewSymDense(2, nil)
	r.CopySym(u.r)

	return r
}
