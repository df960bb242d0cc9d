package sim

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-kalman"
	"github.com/milosgajdos/go-kalman/matrix"
	"github.com/milosgajdos/go-kalman/noise"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Config is a tracking scenario configuration
type Config struct {
	// DT is the sampling period
	DT float64 `yaml:"dt"`
	// TMax is the end of the simulated time interval
	TMax float64 `yaml:"tmax"`
	// Freq is the angular frequency of the circular trajectory
	Freq float64 `yaml:"freq"`
	// MeasStdDev is the standard deviation of position measurement noise
	MeasStdDev float64 `yaml:"measStdDev"`
	// Seed seeds measurement noise
	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns default scenario configuration
func DefaultConfig() Config {
	return Config{
		DT:         0.05,
		TMax:       20,
		Freq:       0.7854,
		MeasStdDev: math.Sqrt(0.1),
		Seed:       42,
	}
}

// Validate returns all problems found in the configuration
func (c Config) Validate() error {
	var err error
	if !(c.DT > 0) {
		err = multierr.Append(err, fmt.Errorf("invalid dt: %v", c.DT))
	}

	if !(c.TMax > 0) {
		err = multierr.Append(err, fmt.Errorf("invalid tmax: %v", c.TMax))
	}

	if math.IsNaN(c.Freq) || math.IsInf(c.Freq, 0) {
		err = multierr.Append(err, fmt.Errorf("invalid freq: %v", c.Freq))
	}

	if !(c.MeasStdDev >= 0) || math.IsInf(c.MeasStdDev, 0) {
		err = multierr.Append(err, fmt.Errorf("invalid measurement std dev: %v", c.MeasStdDev))
	}

	return err
}

// Result is the outcome of a tracking scenario.
// Truth, Meas and Est store [x, y] positions in their rows.
type Result struct {
	// Truth is the ground truth trajectory
	Truth *mat.Dense
	// Meas are noisy position measurements
	Meas *mat.Dense
	// Est are filtered position estimates
	Est *mat.Dense
	// MeasMSE is mean squared error of measurements
	MeasMSE float64
	// EstMSE is mean squared error of estimates
	EstMSE float64
}

// Run tracks a circular trajectory configured by c with filter f.
// Measurements are corrupted by zero mean Gaussian noise with c.MeasStdDev
// standard deviation drawn from a source seeded with c.Seed.
// It returns error if the configuration is invalid or if the filter fails.
func Run(f filter.Filter, c Config) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	n, err := noise.NewIsotropic(2, c.MeasStdDev, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create measurement noise: %w", err)
	}

	return RunWithNoise(f, c, n)
}

// RunWithNoise tracks a circular trajectory configured by c with filter f
// and corrupts each position measurement with a sample of measurement noise n.
// The noise is reset before the first measurement so repeated runs replay it.
// Each noisy measurement is fed to f.Update and the first two state
// components of f.Predict are recorded as the position estimate.
// c.MeasStdDev and c.Seed are ignored.
// It returns error if the configuration or noise is invalid or if the filter fails.
func RunWithNoise(f filter.Filter, c Config, n filter.Noise) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if n == nil || n.Cov().SymmetricDim() != 2 {
		return nil, fmt.Errorf("invalid measurement noise: %v", n)
	}

	if err := n.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset measurement noise: %w", err)
	}

	truth, err := Circle(c.Freq, c.DT, c.TMax)
	if err != nil {
		return nil, err
	}

	steps, _ := truth.Dims()

	meas := mat.NewDense(steps, 2, nil)
	est := mat.NewDense(steps, 2, nil)
	for i := 0; i < steps; i++ {
		w := n.Sample()
		if w == nil || w.Len() != 2 {
			return nil, fmt.Errorf("step %d invalid noise sample: %v", i, w)
		}

		z := &mat.VecDense{}
		z.AddVec(truth.RowView(i), w)
		meas.SetRow(i, z.RawVector().Data)

		if err := f.Update(z, c.DT); err != nil {
			return nil, fmt.Errorf("step %d update failed: %w", i, err)
		}

		x, err := f.Predict()
		if err != nil {
			return nil, fmt.Errorf("step %d predict failed: %w", i, err)
		}

		if x.Val().Len() < 2 {
			return nil, fmt.Errorf("estimate has no position: %v", x.Val())
		}

		est.Set(i, 0, x.Val().AtVec(0))
		est.Set(i, 1, x.Val().AtVec(1))
	}

	return &Result{
		Truth:   truth,
		Meas:    meas,
		Est:     est,
		MeasMSE: MSE(truth, meas),
		EstMSE:  MSE(truth, est),
	}, nil
}

// Errors returns euclidean distances between the rows of truth and est.
// It panics if the dimensions of truth and est differ.
func Errors(truth, est *mat.Dense) []float64 {
	diff := &mat.Dense{}
	diff.Sub(truth, est)
	diff.MulElem(diff, diff)

	errs := matrix.RowSums(diff)
	for i := range errs {
		errs[i] = math.Sqrt(errs[i])
	}

	return errs
}

// MSE returns mean squared euclidean error of the rows of est against the rows of truth.
// It returns NaN if either matrix is nil or if their dimensions differ.
func MSE(truth, est *mat.Dense) float64 {
	if truth == nil || est == nil {
		return math.NaN()
	}

	r, c := truth.Dims()
	if er, ec := est.Dims(); r != er || c != ec {
		return math.NaN()
	}

	diff := &mat.Dense{}
	diff.Sub(truth, est)
	diff.MulElem(diff, diff)

	return floats.Sum(matrix.ColSums(diff)) / float64(r)
}
