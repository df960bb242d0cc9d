package model

import (
	"fmt"

	filter "github.com/milosgajdos/go-kalman"
	"gonum.org/v1/gonum/mat"
)

// Propagate propagates the mean of estimate x by timestep dt using model m.
// If m implements filter.Propagator its Propagate method is used, otherwise
// the mean is multiplied by the model state matrix.
// It returns error if the propagation fails or if the propagated state has invalid dimension.
func Propagate(m filter.Model, x filter.Estimate, dt float64) (mat.Vector, error) {
	nx, _ := m.Dims()

	if x.Val().Len() != nx {
		return nil, fmt.Errorf("invalid state vector: %d != %d", x.Val().Len(), nx)
	}

	if p, ok := m.(filter.Propagator); ok {
		xNext, err := p.Propagate(x, dt)
		if err != nil {
			return nil, fmt.Errorf("system state propagation failed: %w", err)
		}

		if xNext == nil || xNext.Len() != nx {
			return nil, fmt.Errorf("invalid propagated state: %v", xNext)
		}

		return xNext, nil
	}

	f := m.StateMatrix(x, dt)
	if f == nil {
		return nil, fmt.Errorf("invalid state matrix: %v", f)
	}
	if rows, cols := f.Dims(); rows != nx || cols != nx {
		return nil, fmt.Errorf("invalid state matrix dimensions: [%d x %d]", rows, cols)
	}

	xNext := mat.NewVecDense(nx, nil)
	xNext.MulVec(f, x.Val())

	return xNext, nil
}

// Observe returns the expected measurement of estimate x at timestep dt using model m.
// If m implements filter.Observer its Observe method is used, otherwise
// the mean is multiplied by the model output matrix.
// It returns error if the observation fails or if the observed output has invalid dimension.
func Observe(m filter.Model, x filter.Estimate, dt float64) (mat.Vector, error) {
	nx, ny := m.Dims()

	if x.Val().Len() != nx {
		return nil, fmt.Errorf("invalid state vector: %d != %d", x.Val().Len(), nx)
	}

	if o, ok := m.(filter.Observer); ok {
		y, err := o.Observe(x, dt)
		if err != nil {
			return nil, fmt.Errorf("failed to observe system output: %w", err)
		}

		if y == nil || y.Len() != ny {
			return nil, fmt.Errorf("invalid observed output: %v", y)
		}

		return y, nil
	}

	h := m.OutputMatrix(x, dt)
	if h == nil {
		return nil, fmt.Errorf("invalid output matrix: %v", h)
	}
	if rows, cols := h.Dims(); rows != ny || cols != nx {
		return nil, fmt.Errorf("invalid output matrix dimensions: [%d x %d]", rows, cols)
	}

	y := mat.NewVecDense(ny, nil)
	y.MulVec(h, x.Val())

	return y, nil
}
