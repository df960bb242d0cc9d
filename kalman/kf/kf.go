package kf

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-kalman"
	"github.com/milosgajdos/go-kalman/estimate"
	"github.com/milosgajdos/go-kalman/kalman"
	"github.com/milosgajdos/go-kalman/matrix"
	"github.com/milosgajdos/go-kalman/model"
	"gonum.org/v1/gonum/mat"
)

var _ kalman.Kalman = (*KF)(nil)

// KF is Kalman Filter.
// KF handles both linear and nonlinear system models: covariances are
// propagated through the state and output matrices the model returns for
// the current estimate, while the mean is propagated and observed through
// the model's Propagate and Observe methods if it implements them.
//
// KF is not safe for concurrent use.
type KF struct {
	// m is KF system model
	m filter.Model
	// x is the posterior estimate; nil until the first update
	x *estimate.Gaussian
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
}

// New creates new KF and returns it.
// The filter has no estimate until it either assimilates its first measurement or is initialized.
// It returns error if either of the following conditions is met:
//   - invalid model is given: model dimensions must be positive integers
//   - model matrices do not match the model dimensions
func New(m filter.Model) (*KF, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}

	nx, ny := m.Dims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	x, err := estimate.NewGaussianPrior(nx)
	if err != nil {
		return nil, err
	}

	if err := checkModel(m, x, 0); err != nil {
		return nil, err
	}

	return &KF{
		m:   m,
		inn: mat.NewVecDense(ny, nil),
		k:   mat.NewDense(nx, ny, nil),
	}, nil
}

// Init initializes KF estimate to the initial condition ic.
// It returns error if ic dimensions do not match the model dimensions.
func (k *KF) Init(ic filter.InitCond) error {
	if ic == nil {
		return fmt.Errorf("invalid initial condition: %v", ic)
	}

	nx, _ := k.m.Dims()
	if n := ic.State().Len(); n != nx {
		return fmt.Errorf("invalid initial state dimension: %d != %d", n, nx)
	}

	x, err := estimate.NewGaussian(ic.State(), ic.Cov())
	if err != nil {
		return fmt.Errorf("invalid initial condition: %w", err)
	}
	k.x = x

	return nil
}

// Predict returns the current KF estimate.
// It does not advance the estimate in time: the estimate only changes when a new measurement is assimilated.
// It returns kalman.ErrUninitializedState if KF has neither been initialized nor updated yet.
func (k *KF) Predict() (filter.Estimate, error) {
	if k.x == nil {
		return nil, kalman.ErrUninitializedState
	}

	return k.x.Clone(), nil
}

// Update propagates the current estimate by timestep dt and corrects it using measurement z.
// If KF has no estimate yet, it starts from a zero mean prior with identity covariance.
// It returns error if either invalid measurement or timestep is supplied, if the model fails to
// propagate or observe the estimate, or if the innovation covariance is singular, in which case
// the returned error wraps kalman.ErrSingularCov. KF estimate is not modified on error.
func (k *KF) Update(z mat.Vector, dt float64) error {
	nx, ny := k.m.Dims()

	if z == nil || z.Len() != ny {
		return fmt.Errorf("invalid measurement supplied: %v", z)
	}

	for i := 0; i < z.Len(); i++ {
		if v := z.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid measurement element %d: %v", i, v)
		}
	}

	if math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("invalid timestep: %v", dt)
	}

	x := k.x
	if x == nil {
		var err error
		if x, err = estimate.NewGaussianPrior(nx); err != nil {
			return err
		}
	}

	prior, err := k.propagate(x, dt)
	if err != nil {
		return err
	}

	h := k.m.OutputMatrix(prior, dt)
	if err := checkDims(h, ny, nx, "observation matrix"); err != nil {
		return err
	}

	r := k.m.OutputNoiseCov(prior, dt)
	if err := checkDims(r, ny, ny, "output noise covariance"); err != nil {
		return err
	}

	// observe system output in the next step
	y, err := model.Observe(k.m, prior, dt)
	if err != nil {
		return err
	}

	pNext := prior.Cov()

	pxy := mat.NewDense(nx, ny, nil)
	pyy := mat.NewDense(ny, ny, nil)

	// P*H'
	pxy.Mul(pNext, h.T())

	// Note: pxy = P * H' so we reuse the result here
	// H*P*H' + R
	pyy.Mul(h, pxy)
	pyy.Add(pyy, r)

	// calculate Kalman gain
	pyyInv := &mat.Dense{}
	if err := pyyInv.Inverse(pyy); err != nil {
		return fmt.Errorf("%w: %w", kalman.ErrSingularCov, err)
	}
	gain := &mat.Dense{}
	gain.Mul(pxy, pyyInv)

	// innovation vector
	inn := &mat.VecDense{}
	inn.SubVec(z, y)

	// correct predicted state
	corr := &mat.VecDense{}
	corr.MulVec(gain, inn)
	xCorr := &mat.VecDense{}
	xCorr.AddVec(prior.Val(), corr)

	eye, err := matrix.Identity(nx)
	if err != nil {
		return err
	}
	a := &mat.Dense{}
	// K*H
	a.Mul(gain, h)
	// eye - K*H
	a.Sub(eye, a)

	pCorr := &mat.Dense{}
	pCorr.Mul(a, pNext)

	post, err := estimate.NewGaussian(xCorr, matrix.Symmetrize(pCorr))
	if err != nil {
		return err
	}

	k.x = post
	k.inn.CopyVec(inn)
	k.k.Copy(gain)

	return nil
}

// propagate returns estimate x propagated by timestep dt
func (k *KF) propagate(x *estimate.Gaussian, dt float64) (*estimate.Gaussian, error) {
	nx, _ := k.m.Dims()

	f := k.m.StateMatrix(x, dt)
	if err := checkDims(f, nx, nx, "state matrix"); err != nil {
		return nil, err
	}

	q := k.m.StateNoiseCov(x, dt)
	if err := checkDims(q, nx, nx, "state noise covariance"); err != nil {
		return nil, err
	}

	xNext, err := model.Propagate(k.m, x, dt)
	if err != nil {
		return nil, err
	}

	// F*P*F' + Q
	cov := &mat.Dense{}
	cov.Product(f, x.Cov(), f.T())
	cov.Add(cov, q)

	return estimate.NewGaussian(xNext, matrix.Symmetrize(cov))
}

// Model returns KF model
func (k *KF) Model() filter.Model {
	return k.m
}

// Reset discards KF estimate, gain and innovation
func (k *KF) Reset() {
	k.x = nil
	k.inn.Zero()
	k.k.Zero()
}

// Gain returns Kalman gain
func (k *KF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// Innovation returns the innovation vector of the most recent update
func (k *KF) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	inn.CloneFromVec(k.inn)

	return inn
}

// checkModel checks that model m matrices evaluated at x have the dimensions m reports
func checkModel(m filter.Model, x filter.Estimate, dt float64) error {
	nx, ny := m.Dims()

	if err := checkDims(m.StateMatrix(x, dt), nx, nx, "state matrix"); err != nil {
		return err
	}

	if err := checkDims(m.OutputMatrix(x, dt), ny, nx, "observation matrix"); err != nil {
		return err
	}

	if err := checkDims(m.StateNoiseCov(x, dt), nx, nx, "state noise covariance"); err != nil {
		return err
	}

	return checkDims(m.OutputNoiseCov(x, dt), ny, ny, "output noise covariance")
}

func checkDims(m mat.Matrix, rows, cols int, name string) error {
	if m == nil {
		return fmt.Errorf("invalid %s: %v", name, m)
	}

	if r, c := m.Dims(); r != rows || c != cols {
		return fmt.Errorf("invalid %s dimensions: [%d x %d]", name, r, c)
	}

	return nil
}
