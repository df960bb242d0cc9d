// Package param implements online estimators of scalar parameters.
package param

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientData is returned when an estimate requires more samples than received
var ErrInsufficientData = errors.New("need at least two measurements")

// RunningMean estimates mean and variance of a scalar parameter from a stream
// of samples using Welford's online algorithm.
// RunningMean is not safe for concurrent use.
type RunningMean struct {
	// n is sample count
	n int
	// mean is running mean
	mean float64
	// m2 is running sum of squared deviations from the mean
	m2 float64
}

// NewRunningMean creates new RunningMean and returns it
func NewRunningMean() *RunningMean {
	return &RunningMean{}
}

// Update adds sample x to the estimate
func (r *RunningMean) Update(x float64) {
	r.n++

	delta := x - r.mean
	r.mean += delta / float64(r.n)

	delta2 := x - r.mean
	r.m2 += delta * delta2
}

// Get returns the estimated mean and sample variance.
// It returns ErrInsufficientData if fewer than two samples have been received.
func (r *RunningMean) Get() (mean, variance float64, err error) {
	if r.n < 2 {
		return 0, 0, ErrInsufficientData
	}

	return r.mean, r.variance(), nil
}

// Confidence returns the half-width of the symmetric confidence interval
// around the estimated mean for the standard score z.
// It returns ErrInsufficientData if fewer than two samples have been received.
func (r *RunningMean) Confidence(z float64) (float64, error) {
	if r.n < 2 {
		return 0, ErrInsufficientData
	}

	return math.Abs(z) * math.Sqrt(r.variance()/float64(r.n)), nil
}

// Count returns the number of received samples
func (r *RunningMean) Count() int {
	return r.n
}

func (r *RunningMean) variance() float64 {
	return r.m2 / float64(r.n-1)
}

// ZScore returns the standard score of the two-sided confidence level,
// e.g. 1.96 for the 0.95 level.
// It returns error if level is not in the (0, 1) interval.
func ZScore(level float64) (float64, error) {
	if !(level > 0 && level < 1) {
		return 0, fmt.Errorf("invalid confidence level: %v", level)
	}

	return distuv.UnitNormal.Quantile(0.5 + level/2), nil
}
