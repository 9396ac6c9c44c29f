// Package lda fits, evaluates and applies the two-class linear discriminant
// that scores epochs as target versus non-target.
package lda

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/yelabb/phantomSpell-sub001/internal/features"
	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

var (
	// ErrInsufficientData is returned when fewer than MinTrainingSamples
	// labeled epochs are available. The caller should collect more data.
	ErrInsufficientData = errors.New("need more training data")

	// ErrSingleClass is returned when every label is identical. The caller
	// needs both target and non-target examples.
	ErrSingleClass = errors.New("need both target and non-target examples")
)

// MinTrainingSamples is the smallest calibration set training accepts.
const MinTrainingSamples = 10

// shrinkage is the diagonal regularization fraction: lambda is this times
// the mean diagonal of the pooled scatter, guaranteeing positive
// definiteness even with more features than samples.
const shrinkage = 0.1

// Options parameterize one training run.
type Options struct {
	FeatureMode      models.FeatureMode
	DownsampleFactor int

	// Seed drives the k-fold shuffle. Zero seeds from the clock, so
	// reported accuracy is only reproducible with an explicit seed.
	Seed int64

	Logger *zap.Logger
}

// Train fits a discriminant from labeled epochs, estimates its
// cross-validated accuracy and returns the model. No model is produced on
// insufficient or single-class data.
func Train(data []models.LabeledEpoch, opts Options) (*models.LDAModel, error) {
	if len(data) < MinTrainingSamples {
		return nil, ErrInsufficientData
	}

	x := make([][]float64, len(data))
	y := make([]int, len(data))
	hasTarget, hasNonTarget := false, false
	for i, d := range data {
		x[i] = features.Extract(opts.FeatureMode, d.Epoch, opts.DownsampleFactor)
		y[i] = d.Label
		if d.Label == 1 {
			hasTarget = true
		} else {
			hasNonTarget = true
		}
	}
	if !hasTarget || !hasNonTarget {
		return nil, ErrSingleClass
	}

	weights, threshold, usedFallback := fit(x, y)
	if usedFallback && opts.Logger != nil {
		opts.Logger.Warn("Cholesky factorization failed, used gradient-descent fallback",
			zap.Int("nSamples", len(data)),
			zap.Int("nFeatures", len(weights)))
	}

	accuracy := estimateAccuracy(x, y, opts.Seed)

	return &models.LDAModel{
		Weights:          weights,
		Threshold:        threshold,
		NFeatures:        len(weights),
		TrainingAccuracy: accuracy,
		NSamples:         len(data),
		FeatureMode:      opts.FeatureMode,
		TrainedAt:        time.Now().UTC(),
	}, nil
}

// fit computes the discriminant direction and decision threshold from a
// feature matrix and labels. Callers must guarantee both classes are
// present.
func fit(x [][]float64, y []int) (weights []float64, threshold float64, usedFallback bool) {
	d := len(x[0])

	// Class means
	mean0 := make([]float64, d)
	mean1 := make([]float64, d)
	n0, n1 := 0, 0
	for i, row := range x {
		if y[i] == 1 {
			n1++
			for j, v := range row {
				mean1[j] += v
			}
		} else {
			n0++
			for j, v := range row {
				mean0[j] += v
			}
		}
	}
	for j := 0; j < d; j++ {
		mean0[j] /= float64(n0)
		mean1[j] /= float64(n1)
	}

	// Pooled within-class scatter, normalized by (n0+n1-2)
	sigma := mat.NewSymDense(d, nil)
	diff := make([]float64, d)
	for i, row := range x {
		mean := mean0
		if y[i] == 1 {
			mean = mean1
		}
		for j, v := range row {
			diff[j] = v - mean[j]
		}
		for j := 0; j < d; j++ {
			for k := j; k < d; k++ {
				sigma.SetSym(j, k, sigma.At(j, k)+diff[j]*diff[k])
			}
		}
	}
	norm := float64(n0 + n1 - 2)
	if norm < 1 {
		norm = 1
	}
	trace := 0.0
	for j := 0; j < d; j++ {
		for k := j; k < d; k++ {
			sigma.SetSym(j, k, sigma.At(j, k)/norm)
		}
		trace += sigma.At(j, j)
	}

	// Shrink toward the diagonal so the scatter stays invertible in the
	// features > samples regime.
	lambda := shrinkage * trace / float64(d)
	if lambda <= 0 {
		lambda = shrinkage
	}
	for j := 0; j < d; j++ {
		sigma.SetSym(j, j, sigma.At(j, j)+lambda)
	}

	// Solve sigma * w = mean1 - mean0
	b := make([]float64, d)
	for j := 0; j < d; j++ {
		b[j] = mean1[j] - mean0[j]
	}
	w, ok := solveCholesky(sigma, b)
	if !ok {
		w = solveGradientDescent(sigma, b)
		usedFallback = true
	}

	// L2-normalize the direction
	sumSq := 0.0
	for _, v := range w {
		sumSq += v * v
	}
	if l2 := math.Sqrt(sumSq); l2 > 0 {
		for j := range w {
			w[j] /= l2
		}
	}

	threshold = (dot(w, mean0) + dot(w, mean1)) / 2
	return w, threshold, usedFallback
}

// Score projects a feature vector onto the discriminant. Positive means
// more target-like. A dimension mismatch returns a neutral zero score
// rather than failing, so a single drifted epoch cannot crash a live trial.
func Score(model *models.LDAModel, feats []float64) float64 {
	if model == nil || len(feats) != model.NFeatures {
		return 0
	}
	return dot(model.Weights, feats) - model.Threshold
}

// Classify extracts features from the epoch with the model's recorded
// feature mode and scores it.
func Classify(model *models.LDAModel, epoch *models.Epoch, downsampleFactor int) float64 {
	if model == nil {
		return 0
	}
	return Score(model, features.Extract(model.FeatureMode, epoch, downsampleFactor))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
