package sim

import (
	"math"
	"os"
	"testing"

	"github.com/milosgajdos/go-kalman/kalman/kf"
	"github.com/milosgajdos/go-kalman/model"
	"github.com/milosgajdos/go-kalman/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

var (
	cfg Config
)

func setup() {
	cfg = DefaultConfig()
}

func TestMain(m *testing.M) {
	setup()
	os.Exit(m.Run())
}

func TestConfigValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(cfg.Validate())

	c := cfg
	c.DT = 0
	c.TMax = -1
	c.MeasStdDev = math.NaN()
	err := c.Validate()
	assert.Error(err)
	assert.Len(multierr.Errors(err), 3)

	c = cfg
	c.Freq = math.Inf(1)
	assert.Error(c.Validate())
}

func TestMSE(t *testing.T) {
	assert := assert.New(t)

	truth := mat.NewDense(2, 2, []float64{
		0.0, 0.0,
		1.0, 1.0,
	})
	est := mat.NewDense(2, 2, []float64{
		3.0, 4.0,
		1.0, 1.0,
	})

	assert.InDelta(12.5, MSE(truth, est), 1e-12)
	assert.Equal(0.0, MSE(truth, truth))
	assert.True(math.IsNaN(MSE(truth, nil)))
	assert.True(math.IsNaN(MSE(truth, mat.NewDense(3, 2, nil))))

	errs := Errors(truth, est)
	assert.InDeltaSlice([]float64{5.0, 0.0}, errs, 1e-12)
}

func TestRunConstantVelocity(t *testing.T) {
	assert := assert.New(t)

	F := mat.NewDense(4, 4, []float64{
		1.0, 0.0, cfg.DT, 0.0,
		0.0, 1.0, 0.0, cfg.DT,
		0.0, 0.0, 1.0, 0.0,
		0.0, 0.0, 0.0, 1.0,
	})
	H := mat.NewDense(2, 4, []float64{
		1.0, 0.0, 0.0, 0.0,
		0.0, 1.0, 0.0, 0.0,
	})
	Q := mat.NewSymDense(4, []float64{
		0.001, 0.0, 0.0, 0.0,
		0.0, 0.001, 0.0, 0.0,
		0.0, 0.0, 0.001, 0.0,
		0.0, 0.0, 0.0, 0.001,
	})
	R := mat.NewSymDense(2, []float64{
		0.1, 0.0,
		0.0, 0.1,
	})

	m, err := model.NewLTI(F, H, Q, R)
	require.NoError(t, err)

	f, err := kf.New(m)
	require.NoError(t, err)

	res, err := Run(f, cfg)
	require.NoError(t, err)

	r, c := res.Est.Dims()
	assert.Equal(400, r)
	assert.Equal(2, c)

	assert.Less(res.EstMSE, res.MeasMSE)
	// measurement noise variance is 0.1 per axis
	assert.InDelta(0.2, res.MeasMSE, 0.05)
}

func TestRunKinematics(t *testing.T) {
	assert := assert.New(t)

	ca, err := model.NewConstantAcceleration(cfg.DT, 0.001, 0.1)
	require.NoError(t, err)

	f, err := kf.New(ca)
	require.NoError(t, err)

	res, err := Run(f, cfg)
	require.NoError(t, err)
	assert.Less(res.EstMSE, res.MeasMSE)

	// same seed replays the same measurements
	f.Reset()
	again, err := Run(f, cfg)
	require.NoError(t, err)
	assert.True(mat.Equal(res.Meas, again.Meas))
	assert.InDelta(res.EstMSE, again.EstMSE, 1e-12)
}

func TestRunInvalid(t *testing.T) {
	assert := assert.New(t)

	cv, err := model.NewConstantVelocity(cfg.DT, 0.001, 0.1)
	require.NoError(t, err)

	f, err := kf.New(cv)
	require.NoError(t, err)

	c := cfg
	c.DT = 0
	res, err := Run(f, c)
	assert.Nil(res)
	assert.Error(err)
}

func TestRunUnicycle(t *testing.T) {
	assert := assert.New(t)

	uni, err := model.NewUnicycle(0.01, 0.1)
	require.NoError(t, err)

	f, err := kf.New(uni)
	require.NoError(t, err)

	res, err := Run(f, cfg)
	require.NoError(t, err)
	assert.False(math.IsNaN(res.EstMSE))
	assert.Less(res.EstMSE, res.MeasMSE)
}

func TestRunWithNoise(t *testing.T) {
	assert := assert.New(t)

	cv, err := model.NewConstantVelocity(cfg.DT, 0.001, 0.1)
	require.NoError(t, err)

	f, err := kf.New(cv)
	require.NoError(t, err)

	// noiseless measurements follow the trajectory exactly
	z, err := noise.NewZero(2)
	require.NoError(t, err)

	res, err := RunWithNoise(f, cfg, z)
	require.NoError(t, err)
	assert.Equal(0.0, res.MeasMSE)
	assert.True(mat.Equal(res.Truth, res.Meas))

	// the same noise is replayed on every run
	g, err := noise.NewGaussianWithSeed([]float64{0, 0}, mat.NewSymDense(2, []float64{0.1, 0, 0, 0.1}), 11)
	require.NoError(t, err)

	f.Reset()
	first, err := RunWithNoise(f, cfg, g)
	require.NoError(t, err)
	f.Reset()
	second, err := RunWithNoise(f, cfg, g)
	require.NoError(t, err)
	assert.True(mat.Equal(first.Meas, second.Meas))
	assert.Less(first.EstMSE, first.MeasMSE)

	// noise must be two dimensional
	z3, err := noise.NewZero(3)
	require.NoError(t, err)
	res, err = RunWithNoise(f, cfg, z3)
	assert.Nil(res)
	assert.Error(err)

	res, err = RunWithNoise(f, cfg, nil)
	assert.Nil(res)
	assert.Error(err)
}
