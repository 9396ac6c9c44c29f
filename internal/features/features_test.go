package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

func TestDownsampleBlockMeans(t *testing.T) {
	data := make([]float64, 16)
	for i := range data {
		data[i] = float64(i)
	}
	epoch := &models.Epoch{Data: [][]float64{data}, SampleRate: 250}

	vec := Downsample(epoch, 8)
	require.Len(t, vec, 2)
	assert.InDelta(t, 3.5, vec[0], 1e-12)
	assert.InDelta(t, 11.5, vec[1], 1e-12)
}

func TestDownsamplePartialTrailingBlock(t *testing.T) {
	// 10 samples with k=8: second block averages only samples 8 and 9.
	data := []float64{0, 0, 0, 0, 0, 0, 0, 0, 4, 6}
	epoch := &models.Epoch{Data: [][]float64{data}, SampleRate: 250}

	vec := Downsample(epoch, 8)
	require.Len(t, vec, 2)
	assert.InDelta(t, 0, vec[0], 1e-12)
	assert.InDelta(t, 5, vec[1], 1e-12)
}

func TestDownsampleMultichannelLength(t *testing.T) {
	rows := make([][]float64, 3)
	for ch := range rows {
		rows[ch] = make([]float64, 250)
	}
	epoch := &models.Epoch{Data: rows, SampleRate: 250}

	vec := Downsample(epoch, 8)
	assert.Len(t, vec, 3*32) // ceil(250/8) = 32 blocks per channel
	assert.Equal(t, len(vec), Length(models.FeatureDownsample, 3, 250, 8))
}

func TestNamedWindowsStats(t *testing.T) {
	// 250 SPS, 200 ms pre (50 samples), 800 ms post (200 samples).
	const pre, post = 50, 200
	data := make([]float64, pre+post)
	for i := range data {
		data[i] = 1.0
	}
	// A single spike inside the 250-500 ms window: sample pre + 75 (300 ms).
	data[pre+75] = 9.0

	epoch := &models.Epoch{Data: [][]float64{data}, PreSamples: pre, SampleRate: 250}
	vec := NamedWindows(epoch)
	require.Len(t, vec, 6) // 1 channel x 3 windows x (mean, peak)

	earlyMean, earlyPeak := vec[0], vec[1]
	p300Mean, p300Peak := vec[2], vec[3]
	lateMean, latePeak := vec[4], vec[5]

	assert.InDelta(t, 1.0, earlyMean, 1e-12)
	assert.InDelta(t, 1.0, earlyPeak, 1e-12)
	assert.InDelta(t, 1.0, lateMean, 1e-12)
	assert.InDelta(t, 1.0, latePeak, 1e-12)

	// The spike lifts both the mean and the peak of the P300 window only.
	assert.Greater(t, p300Mean, 1.0)
	assert.InDelta(t, 9.0, p300Peak, 1e-12)
}

func TestNamedWindowsLength(t *testing.T) {
	rows := make([][]float64, 8)
	for ch := range rows {
		rows[ch] = make([]float64, 250)
	}
	epoch := &models.Epoch{Data: rows, PreSamples: 50, SampleRate: 250}

	vec := NamedWindows(epoch)
	assert.Len(t, vec, 8*3*2)
	assert.Equal(t, len(vec), Length(models.FeatureNamedWindows, 8, 250, 0))
}

func TestExtractDispatch(t *testing.T) {
	rows := [][]float64{make([]float64, 100)}
	epoch := &models.Epoch{Data: rows, PreSamples: 20, SampleRate: 250}

	assert.Len(t, Extract(models.FeatureDownsample, epoch, 8), 13)
	assert.Len(t, Extract(models.FeatureNamedWindows, epoch, 8), 6)
}
