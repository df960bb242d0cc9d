package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NewConstantVelocity creates a 2D constant velocity LTI model and returns it.
// The state vector is [x, y, vx, vy] and only the position [x, y] is observed.
// q and r scale identity process and observation noise covariances, respectively.
// It returns error if dt is not positive or if either q or r is negative.
func NewConstantVelocity(dt, q, r float64) (*LTI, error) {
	if err := validateKinematics(dt, q, r); err != nil {
		return nil, err
	}

	F := mat.NewDense(4, 4, []float64{
		1.0, 0.0, dt, 0.0,
		0.0, 1.0, 0.0, dt,
		0.0, 0.0, 1.0, 0.0,
		0.0, 0.0, 0.0, 1.0,
	})

	H := mat.NewDense(2, 4, []float64{
		1.0, 0.0, 0.0, 0.0,
		0.0, 1.0, 0.0, 0.0,
	})

	return NewLTI(F, H, scaledEye(4, q), scaledEye(2, r))
}

// NewConstantAcceleration creates a 2D constant acceleration LTI model and returns it.
// The state vector is [x, y, vx, vy, ax, ay] and only the position [x, y] is observed.
// q and r scale identity process and observation noise covariances, respectively.
// It returns error if dt is not positive or if either q or r is negative.
func NewConstantAcceleration(dt, q, r float64) (*LTI, error) {
	if err := validateKinematics(dt, q, r); err != nil {
		return nil, err
	}

	a := 0.5 * dt * dt
	F := mat.NewDense(6, 6, []float64{
		1.0, 0.0, dt, 0.0, a, 0.0,
		0.0, 1.0, 0.0, dt, 0.0, a,
		0.0, 0.0, 1.0, 0.0, dt, 0.0,
		0.0, 0.0, 0.0, 1.0, 0.0, dt,
		0.0, 0.0, 0.0, 0.0, 1.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 1.0,
	})

	H := mat.NewDense(2, 6, []float64{
		1.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 1.0, 0.0, 0.0, 0.0, 0.0,
	})

	return NewLTI(F, H, scaledEye(6, q), scaledEye(2, r))
}

func validateKinematics(dt, q, r float64) error {
	if dt <= 0 {
		return fmt.Errorf("invalid timestep: %v", dt)
	}

	if q < 0 || r < 0 {
		return fmt.Errorf("invalid noise scale: q=%v r=%v", q, r)
	}

	return nil
}

// scaledEye returns n x n symmetric matrix with v on its diagonal
func scaledEye(n int, v float64) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, v)
	}

	return m
}
