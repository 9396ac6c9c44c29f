package lda

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

func newSym2x2(a, b, c float64) *mat.SymDense {
	m := mat.NewSymDense(2, nil)
	m.SetSym(0, 0, a)
	m.SetSym(0, 1, b)
	m.SetSym(1, 1, c)
	return m
}

const (
	testPre  = 50  // 200 ms at 250 SPS
	testPost = 200 // 800 ms at 250 SPS
	testRate = 250.0
)

// syntheticEpoch builds a 2-channel epoch of Gaussian noise, optionally
// with a clear P300-like bump peaking 300 ms post-stimulus.
func syntheticEpoch(rng *rand.Rand, target bool) *models.Epoch {
	total := testPre + testPost
	rows := make([][]float64, 2)
	for ch := range rows {
		rows[ch] = make([]float64, total)
		for i := range rows[ch] {
			rows[ch][i] = rng.NormFloat64() * 0.1
		}
		if target {
			center := float64(testPre + 75) // 300 ms post-stimulus
			for i := range rows[ch] {
				d := float64(i) - center
				rows[ch][i] += 5 * math.Exp(-d*d/(2*15*15))
			}
		}
	}
	return &models.Epoch{Data: rows, PreSamples: testPre, SampleRate: testRate}
}

func syntheticSet(n int, rng *rand.Rand) []models.LabeledEpoch {
	data := make([]models.LabeledEpoch, 0, n)
	for i := 0; i < n; i++ {
		target := i%2 == 0
		label := 0
		if target {
			label = 1
		}
		data = append(data, models.LabeledEpoch{
			Epoch: syntheticEpoch(rng, target),
			Label: label,
		})
	}
	return data
}

func TestTrainInsufficientData(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := syntheticSet(MinTrainingSamples-1, rng)

	_, err := Train(data, Options{FeatureMode: models.FeatureDownsample, Seed: 1})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestTrainSingleClass(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	data := make([]models.LabeledEpoch, 12)
	for i := range data {
		data[i] = models.LabeledEpoch{Epoch: syntheticEpoch(rng, false), Label: 0}
	}

	_, err := Train(data, Options{FeatureMode: models.FeatureDownsample, Seed: 1})
	assert.ErrorIs(t, err, ErrSingleClass)
}

func TestTrainSeparableRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := syntheticSet(24, rng)

	model, err := Train(data, Options{
		FeatureMode:      models.FeatureDownsample,
		DownsampleFactor: 8,
		Seed:             3,
	})
	require.NoError(t, err)

	assert.Equal(t, 24, model.NSamples)
	assert.Equal(t, models.FeatureDownsample, model.FeatureMode)
	assert.Len(t, model.Weights, model.NFeatures)
	assert.Greater(t, model.TrainingAccuracy, 0.9,
		"clearly separated classes should cross-validate above 0.9")

	targetScore := Classify(model, syntheticEpoch(rng, true), 8)
	nonTargetScore := Classify(model, syntheticEpoch(rng, false), 8)
	assert.Greater(t, targetScore, nonTargetScore)
	assert.Greater(t, targetScore, 0.0)
	assert.Less(t, nonTargetScore, 0.0)
}

func TestTrainNamedWindowMode(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	data := syntheticSet(20, rng)

	model, err := Train(data, Options{FeatureMode: models.FeatureNamedWindows, Seed: 4})
	require.NoError(t, err)

	assert.Equal(t, 2*3*2, model.NFeatures)
	assert.Greater(t, model.TrainingAccuracy, 0.9)
}

func TestScoreDimensionMismatchIsNeutral(t *testing.T) {
	model := &models.LDAModel{
		Weights:   []float64{1, 2, 3, 4, 5},
		Threshold: 0.7,
		NFeatures: 5,
	}

	assert.Zero(t, Score(model, []float64{1, 2, 3}))
	assert.Zero(t, Score(nil, []float64{1, 2, 3}))
	assert.InDelta(t, 1*1+2*2+3*3+4*4+5*5-0.7, Score(model, []float64{1, 2, 3, 4, 5}), 1e-12)
}

func TestKFoldIsSeededAndReproducible(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	// 120 samples forces the 10-fold path.
	x := make([][]float64, 120)
	y := make([]int, 120)
	for i := range x {
		target := i%2 == 0
		offset := 0.0
		if target {
			y[i] = 1
			offset = 4.0
		}
		x[i] = []float64{offset + rng.NormFloat64(), offset + rng.NormFloat64()}
	}

	first := kFold(x, y, 42)
	second := kFold(x, y, 42)
	assert.Equal(t, first, second)
	assert.Greater(t, first, 0.9)
}

func TestGradientDescentFallbackAgreesWithCholesky(t *testing.T) {
	// A well-conditioned 2x2 system both solvers can handle.
	sigma := newSym2x2(4, 1, 3)
	b := []float64{1, 2}

	direct, ok := solveCholesky(sigma, b)
	require.True(t, ok)

	iterative := solveGradientDescent(sigma, b)
	for i := range direct {
		assert.InDelta(t, direct[i], iterative[i], 1e-6)
	}
}
