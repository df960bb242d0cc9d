package filter

import "gonum.org/v1/gonum/mat"

// Filter is a recursive dynamical system filter.
type Filter interface {
	// Predict returns the current state estimate
	Predict() (Estimate, error)
	// Update assimilates measurement z taken dt after the previous one
	Update(z mat.Vector, dt float64) error
}

// Model is a model of a dynamical system which supplies the matrices
// needed to propagate the system state and to predict its observations.
// All matrices are linearizations about the estimate x; time-varying
// models may also depend on the timestep dt.
type Model interface {
	// Dims returns state and output dimensions of the model
	Dims() (nx, ny int)
	// StateMatrix returns state transition matrix F
	StateMatrix(x Estimate, dt float64) mat.Matrix
	// OutputMatrix returns observation matrix H
	OutputMatrix(x Estimate, dt float64) mat.Matrix
	// StateNoiseCov returns process noise covariance Q
	StateNoiseCov(x Estimate, dt float64) mat.Symmetric
	// OutputNoiseCov returns observation noise covariance R
	OutputNoiseCov(x Estimate, dt float64) mat.Symmetric
}

// Propagator propagates internal state of the system to the next step.
// Models which implement it override the default linear propagation.
type Propagator interface {
	// Propagate propagates the mean of x by dt
	Propagate(x Estimate, dt float64) (mat.Vector, error)
}

// Observer observes external state (output) of the system.
// Models which implement it override the default linear observation.
type Observer interface {
	// Observe returns the expected measurement of x
	Observe(x Estimate, dt float64) (mat.Vector, error)
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}
