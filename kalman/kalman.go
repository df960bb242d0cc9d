package kalman

import (
	"errors"

	filter "github.com/milosgajdos/go-kalman"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUninitializedState is returned when the filter estimate is requested before any measurement was assimilated
	ErrUninitializedState = errors.New("no measurements received")
	// ErrSingularCov is returned when the innovation covariance can not be inverted
	ErrSingularCov = errors.New("singular innovation covariance")
)

// Kalman is Kalman Filter
type Kalman interface {
	// filter.Filter is dynamical system filter
	filter.Filter
	// Init initializes filter state to the given initial condition
	Init(filter.InitCond) error
	// Gain returns Kalman filter gain
	Gain() mat.Matrix
	// Innovation returns the most recent innovation vector
	Innovation() mat.Vector
}
