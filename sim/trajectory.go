package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Steps returns the number of samples taken every dt in time interval [0, tmax).
func Steps(dt, tmax float64) int {
	n := 0
	for float64(n)*dt < tmax {
		n++
	}

	return n
}

// Circle generates a unit circle trajectory (cos(freq*t), sin(freq*t)) sampled every dt for t in [0, tmax).
// Each row of the returned matrix stores a single [x, y] position.
// It returns error if either dt or tmax is not positive or if freq is not finite.
func Circle(freq, dt, tmax float64) (*mat.Dense, error) {
	if dt <= 0 || tmax <= 0 {
		return nil, fmt.Errorf("invalid time interval: dt=%v tmax=%v", dt, tmax)
	}

	if math.IsNaN(freq) || math.IsInf(freq, 0) {
		return nil, fmt.Errorf("invalid frequency: %v", freq)
	}

	n := Steps(dt, tmax)
	path := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		t := float64(i) * dt
		path.Set(i, 0, math.Cos(freq*t))
		path.Set(i, 1, math.Sin(freq*t))
	}

	return path, nil
}
