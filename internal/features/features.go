// Package features reduces conditioned epochs to fixed-length feature
// vectors for the linear classifier. Both strategies are pure functions of
// the epoch: no state, no side effects.
package features

import (
	"math"

	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

// DefaultDownsampleFactor is the block size for the downsample strategy.
const DefaultDownsampleFactor = 8

// latencyWindow is one named post-stimulus window, in milliseconds
// relative to stimulus onset.
type latencyWindow struct {
	name    string
	startMs float64
	endMs   float64
}

// namedWindows are the fixed P300-relevant latency windows: the early
// attention response, the P300 peak region, and the late re-orientation.
var namedWindows = []latencyWindow{
	{"early", 100, 200},
	{"p300", 250, 500},
	{"late", 500, 700},
}

// Extract dispatches on the feature mode recorded in a model.
func Extract(mode models.FeatureMode, epoch *models.Epoch, downsampleFactor int) []float64 {
	switch mode {
	case models.FeatureNamedWindows:
		return NamedWindows(epoch)
	default:
		return Downsample(epoch, downsampleFactor)
	}
}

// Downsample averages non-overlapping blocks of k consecutive samples per
// channel and concatenates all channels' block means into one flat vector.
// A trailing partial block is averaged over the samples it has. The length
// is channels * ceil(samples/k), deterministic for a given epoch shape.
func Downsample(epoch *models.Epoch, k int) []float64 {
	if k < 1 {
		k = DefaultDownsampleFactor
	}
	samples := epoch.Samples()
	blocks := (samples + k - 1) / k

	vec := make([]float64, 0, epoch.Channels()*blocks)
	for ch := 0; ch < epoch.Channels(); ch++ {
		for b := 0; b < blocks; b++ {
			start := b * k
			end := start + k
			if end > samples {
				end = samples
			}
			sum := 0.0
			for i := start; i < end; i++ {
				sum += epoch.Data[ch][i]
			}
			vec = append(vec, sum/float64(end-start))
		}
	}
	return vec
}

// NamedWindows computes, per channel and per fixed post-stimulus latency
// window, the window mean and the window peak, concatenated as (mean, peak)
// pairs. The length is channels * len(windows) * 2.
func NamedWindows(epoch *models.Epoch) []float64 {
	vec := make([]float64, 0, epoch.Channels()*len(namedWindows)*2)
	for ch := 0; ch < epoch.Channels(); ch++ {
		for _, w := range namedWindows {
			mean, peak := windowStats(epoch, ch, w)
			vec = append(vec, mean, peak)
		}
	}
	return vec
}

// windowStats computes the mean and max of one channel over one latency
// window. A window falling entirely outside the epoch yields zeros.
func windowStats(epoch *models.Epoch, ch int, w latencyWindow) (mean, peak float64) {
	start := epoch.PreSamples + int(math.Round(w.startMs/1000*epoch.SampleRate))
	end := epoch.PreSamples + int(math.Round(w.endMs/1000*epoch.SampleRate))

	samples := epoch.Samples()
	if start < 0 {
		start = 0
	}
	if end > samples {
		end = samples
	}
	if start >= end {
		return 0, 0
	}

	sum := 0.0
	peak = math.Inf(-1)
	for i := start; i < end; i++ {
		v := epoch.Data[ch][i]
		sum += v
		if v > peak {
			peak = v
		}
	}
	return sum / float64(end-start), peak
}

// Length returns the feature vector length a mode produces for the given
// epoch geometry, without extracting anything.
func Length(mode models.FeatureMode, channels, samples, downsampleFactor int) int {
	switch mode {
	case models.FeatureNamedWindows:
		return channels * len(namedWindows) * 2
	default:
		k := downsampleFactor
		if k < 1 {
			k = DefaultDownsampleFactor
		}
		return channels * ((samples + k - 1) / k)
	}
}
