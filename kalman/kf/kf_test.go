package kf

import (
	"errors"
	"math"
	"os"
	"testing"

	filter "github.com/milosgajdos/go-kalman"
	"github.com/milosgajdos/go-kalman/kalman"
	"github.com/milosgajdos/go-kalman/matrix"
	"github.com/milosgajdos/go-kalman/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

const dt = 0.05

type invalidModel struct {
	filter.Model
	nx int
	ny int
}

func (m *invalidModel) Dims() (nx, ny int) {
	return m.nx, m.ny
}

// degenerateModel switches to an unobservable, noiseless output on demand
type degenerateModel struct {
	*model.LTI
	singular bool
}

func (m *degenerateModel) OutputMatrix(x filter.Estimate, dt float64) mat.Matrix {
	if m.singular {
		return mat.NewDense(2, 4, nil)
	}
	return m.LTI.OutputMatrix(x, dt)
}

func (m *degenerateModel) OutputNoiseCov(x filter.Estimate, dt float64) mat.Symmetric {
	if m.singular {
		return mat.NewSymDense(2, nil)
	}
	return m.LTI.OutputNoiseCov(x, dt)
}

var (
	okModel *model.LTI
	z       *mat.VecDense
)

func setup() {
	okModel, _ = model.NewConstantVelocity(dt, 0.001, 0.1)
	z = mat.NewVecDense(2, []float64{1.0, 0.5})
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestKFNew(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel)
	assert.NoError(err)
	assert.NotNil(f)

	// invalid model: negative dimensions
	f, err = New(&invalidModel{Model: okModel, nx: -10, ny: 20})
	assert.Nil(f)
	assert.Error(err)

	// invalid model: dimensions do not match model matrices
	f, err = New(&invalidModel{Model: okModel, nx: 3, ny: 2})
	assert.Nil(f)
	assert.Error(err)

	f, err = New(nil)
	assert.Nil(f)
	assert.Error(err)
}

func TestKFPredictUninitialized(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel)
	require.NoError(t, err)

	est, err := f.Predict()
	assert.Nil(est)
	assert.True(errors.Is(err, kalman.ErrUninitializedState))
}

func TestKFPredictIdempotent(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel)
	require.NoError(t, err)
	require.NoError(t, f.Update(z, dt))

	est1, err := f.Predict()
	assert.NoError(err)
	est2, err := f.Predict()
	assert.NoError(err)

	assert.True(mat.Equal(est1.Val(), est2.Val()))
	assert.True(mat.Equal(est1.Cov(), est2.Cov()))
}

func TestKFInitPolicy(t *testing.T) {
	assert := assert.New(t)

	implicit, err := New(okModel)
	require.NoError(t, err)
	require.NoError(t, implicit.Update(z, dt))

	explicit, err := New(okModel)
	require.NoError(t, err)
	ic, err := model.NewInitCond(mat.NewVecDense(4, nil), mat.NewSymDense(4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}))
	require.NoError(t, err)
	require.NoError(t, explicit.Init(ic))
	require.NoError(t, explicit.Update(z, dt))

	est1, err := implicit.Predict()
	require.NoError(t, err)
	est2, err := explicit.Predict()
	require.NoError(t, err)

	assert.True(mat.EqualApprox(est1.Val(), est2.Val(), 1e-12))
	assert.True(mat.EqualApprox(est1.Cov(), est2.Cov(), 1e-12))

	// manual recursion from zero mean and identity covariance
	F, H, Q, R := okModel.F, okModel.H, okModel.Q, okModel.R
	pPred := &mat.Dense{}
	pPred.Product(F, F.T())
	pPred.Add(pPred, Q)

	s := &mat.Dense{}
	s.Product(H, pPred, H.T())
	s.Add(s, R)
	sInv := &mat.Dense{}
	require.NoError(t, sInv.Inverse(s))

	gain := &mat.Dense{}
	gain.Product(pPred, H.T(), sInv)

	mean := &mat.VecDense{}
	mean.MulVec(gain, z)

	eye, err := matrix.Identity(4)
	require.NoError(t, err)
	kh := &mat.Dense{}
	kh.Mul(gain, H)
	kh.Sub(eye, kh)
	cov := &mat.Dense{}
	cov.Mul(kh, pPred)

	assert.True(mat.EqualApprox(est1.Val(), mean, 1e-12))
	assert.True(mat.EqualApprox(est1.Cov(), cov, 1e-12))
	assert.True(mat.EqualApprox(implicit.Gain(), gain, 1e-12))
	assert.True(mat.EqualApprox(implicit.Innovation(), z, 1e-12))
}

func TestKFInit(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel)
	require.NoError(t, err)

	err = f.Init(nil)
	assert.Error(err)

	ic, err := model.NewInitCond(mat.NewVecDense(2, nil), mat.NewSymDense(2, nil))
	require.NoError(t, err)
	err = f.Init(ic)
	assert.Error(err)

	state := mat.NewVecDense(4, []float64{1.0, 2.0, 0.1, 0.2})
	ic, err = model.NewInitCond(state, mat.NewSymDense(4, nil))
	require.NoError(t, err)
	assert.NoError(f.Init(ic))

	est, err := f.Predict()
	assert.NoError(err)
	assert.True(mat.Equal(state, est.Val()))
}

func TestKFUpdateDims(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel)
	require.NoError(t, err)

	// invalid measurement vector
	err = f.Update(mat.NewVecDense(3, nil), dt)
	assert.Error(err)

	err = f.Update(nil, dt)
	assert.Error(err)

	// invalid timestep
	err = f.Update(z, math.NaN())
	assert.Error(err)

	_, err = f.Predict()
	assert.True(errors.Is(err, kalman.ErrUninitializedState))

	assert.NoError(f.Update(z, dt))
	est, err := f.Predict()
	assert.NoError(err)
	assert.Equal(4, est.Val().Len())
	assert.Equal(4, est.Cov().SymmetricDim())

	r, c := f.Gain().Dims()
	assert.Equal(4, r)
	assert.Equal(2, c)
	assert.Equal(2, f.Innovation().Len())

	// non-finite measurements are rejected and the estimate is kept
	before, err := f.Predict()
	require.NoError(t, err)

	err = f.Update(mat.NewVecDense(2, []float64{math.NaN(), 0.0}), dt)
	assert.Error(err)
	err = f.Update(mat.NewVecDense(2, []float64{0.0, math.Inf(-1)}), dt)
	assert.Error(err)

	after, err := f.Predict()
	require.NoError(t, err)
	assert.True(mat.Equal(before.Val(), after.Val()))
	assert.True(mat.Equal(before.Cov(), after.Cov()))

	for i := 0; i < 5; i++ {
		assert.NoError(f.Update(z, dt))
	}
	est, err = f.Predict()
	require.NoError(t, err)
	for i := 0; i < est.Val().Len(); i++ {
		assert.False(math.IsNaN(est.Val().AtVec(i)))
	}
}

func TestKFCovSymmetry(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		meas := mat.NewVecDense(2, []float64{rnd.NormFloat64(), rnd.NormFloat64()})
		require.NoError(t, f.Update(meas, dt))

		est, err := f.Predict()
		require.NoError(t, err)
		assert.Less(matrix.MaxAsymmetry(est.Cov()), 1e-9)
		for j := 0; j < 4; j++ {
			assert.Greater(est.Cov().At(j, j), 0.0)
		}
	}
}

func TestKFSingular(t *testing.T) {
	assert := assert.New(t)

	m := &degenerateModel{LTI: okModel, singular: true}
	f, err := New(m)
	require.NoError(t, err)

	err = f.Update(z, dt)
	assert.Error(err)
	assert.True(errors.Is(err, kalman.ErrSingularCov))
	var cond mat.Condition
	assert.True(errors.As(err, &cond))

	// failed update does not initialize the filter
	_, err = f.Predict()
	assert.True(errors.Is(err, kalman.ErrUninitializedState))

	m.singular = false
	require.NoError(t, f.Update(z, dt))
	before, err := f.Predict()
	require.NoError(t, err)

	// failed update leaves the estimate intact
	m.singular = true
	err = f.Update(z, dt)
	assert.True(errors.Is(err, kalman.ErrSingularCov))

	after, err := f.Predict()
	require.NoError(t, err)
	assert.True(mat.Equal(before.Val(), after.Val()))
	assert.True(mat.Equal(before.Cov(), after.Cov()))
}

func TestKFExtended(t *testing.T) {
	assert := assert.New(t)

	u, err := model.NewUnicycle(0.001, 0.1)
	require.NoError(t, err)

	f, err := New(u)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		ti := float64(i) * dt
		meas := mat.NewVecDense(2, []float64{math.Cos(0.7854 * ti), math.Sin(0.7854 * ti)})
		require.NoError(t, f.Update(meas, dt))
	}

	est, err := f.Predict()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.False(math.IsNaN(est.Val().AtVec(i)))
	}
	assert.Less(matrix.MaxAsymmetry(est.Cov()), 1e-9)

	// the estimate follows the noiseless circle
	ti := 99 * dt
	assert.InDelta(math.Cos(0.7854*ti), est.Val().AtVec(0), 0.5)
	assert.InDelta(math.Sin(0.7854*ti), est.Val().AtVec(1), 0.5)
}

func TestKFNumericDimsChange(t *testing.T) {
	assert := assert.New(t)

	// propagation output shrinks once the position passes 0.5
	prop := func(x mat.Vector, dt float64) mat.Vector {
		if x.AtVec(0) > 0.5 {
			return mat.NewVecDense(1, []float64{x.AtVec(0)})
		}
		return mat.NewVecDense(2, []float64{x.AtVec(0) + dt*x.AtVec(1), x.AtVec(1)})
	}
	obs := func(x mat.Vector, _ float64) mat.Vector {
		return mat.NewVecDense(1, []float64{x.AtVec(0)})
	}

	m, err := model.NewNumeric(prop, obs,
		mat.NewSymDense(2, []float64{0.01, 0.0, 0.0, 0.01}),
		mat.NewSymDense(1, []float64{0.1}))
	require.NoError(t, err)

	f, err := New(m)
	require.NoError(t, err)

	meas := mat.NewVecDense(1, []float64{1.0})
	require.NoError(t, f.Update(meas, dt))
	before, err := f.Predict()
	require.NoError(t, err)
	require.Greater(t, before.Val().AtVec(0), 0.5)

	assert.NotPanics(func() {
		err = f.Update(meas, dt)
	})
	assert.Error(err)

	after, err := f.Predict()
	require.NoError(t, err)
	assert.True(mat.Equal(before.Val(), after.Val()))
}

func TestKFReset(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel)
	require.NoError(t, err)
	require.NoError(t, f.Update(z, dt))

	f.Reset()
	_, err = f.Predict()
	assert.True(errors.Is(err, kalman.ErrUninitializedState))
	assert.Zero(mat.Norm(f.Gain(), 1))
	assert.Zero(mat.Norm(f.Innovation(), 1))
	assert.Equal(okModel, f.Model())
}
