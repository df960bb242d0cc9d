package noise

import (
	"fmt"
	"math"
	"time"

	filter "github.com/milosgajdos/go-kalman"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is multivariate normal noise drawn from a seeded source.
// Gaussians created with the same seed generate the same samples.
type Gaussian struct {
	dist *distmv.Normal
	src  rand.Source
	seed uint64
}

// NewGaussian creates new Gaussian noise with given mean and covariance seeded from the current time.
// It returns error if it fails to create Gaussian.
func NewGaussian(mean []float64, cov mat.Symmetric) (*Gaussian, error) {
	return NewGaussianWithSeed(mean, cov, uint64(time.Now().UnixNano()))
}

// NewGaussianWithSeed creates new Gaussian noise with given mean and covariance drawn from a source seeded with seed.
// It returns error if mean and cov dimensions do not match or if cov is not positive definite.
func NewGaussianWithSeed(mean []float64, cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	if cov == nil || len(mean) == 0 || len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("invalid Gaussian noise dimensions")
	}

	src := rand.NewSource(seed)
	dist, ok := distmv.NewNormal(mean, cov, src)
	if !ok {
		return nil, fmt.Errorf("covariance is not positive definite")
	}

	return &Gaussian{
		dist: dist,
		src:  src,
		seed: seed,
	}, nil
}

// NewIsotropic creates dim-dimensional zero mean noise with stdDev standard deviation in every dimension.
// It returns Zero noise if stdDev is zero.
// It returns error if dim is not positive or if stdDev is negative or not finite.
func NewIsotropic(dim int, stdDev float64, seed uint64) (filter.Noise, error) {
	if !(stdDev >= 0) || math.IsInf(stdDev, 0) {
		return nil, fmt.Errorf("invalid standard deviation: %v", stdDev)
	}

	if stdDev == 0 {
		z, err := NewZero(dim)
		if err != nil {
			return nil, err
		}
		return z, nil
	}

	if dim <= 0 {
		return nil, fmt.Errorf("invalid noise dimension: %d", dim)
	}

	cov := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		cov.SetSym(i, i, stdDev*stdDev)
	}

	g, err := NewGaussianWithSeed(make([]float64, dim), cov, seed)
	if err != nil {
		return nil, err
	}

	return g, nil
}

// Sample draws a sample of the noise
func (g *Gaussian) Sample() mat.Vector {
	return mat.NewVecDense(g.dist.Dim(), g.dist.Rand(nil))
}

// Cov returns a copy of the noise covariance
func (g *Gaussian) Cov() mat.Symmetric {
	cov := &mat.SymDense{}
	g.dist.CovarianceMatrix(cov)

	return cov
}

// Mean returns a copy of the noise mean
func (g *Gaussian) Mean() []float64 {
	return g.dist.Mean(nil)
}

// Reset reseeds the noise source so that Gaussian replays its samples from the start.
func (g *Gaussian) Reset() error {
	g.src.Seed(g.seed)

	return nil
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.Mean(), mat.Formatted(g.Cov(), mat.Prefix("    "), mat.Squeeze()))
}
