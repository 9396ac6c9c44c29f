package pipeline

import (
	"math"

	"github.com/yelabb/phantomSpell-sub001/internal/dsp"
	"github.com/yelabb/phantomSpell-sub001/internal/models"
	"github.com/yelabb/phantomSpell-sub001/internal/stream"
)

// Extractor pulls one fixed-length window per stimulus marker out of the
// ring buffer and runs it through the conditioning chain.
type Extractor struct {
	buffer      *stream.RingBuffer
	conditioner *dsp.Conditioner

	sampleRate        float64
	preSamples        int64
	totalSamples      int64
	artifactThreshold float64
}

// NewExtractor computes the window geometry from the configured
// pre-stimulus and post-stimulus durations (milliseconds).
func NewExtractor(buffer *stream.RingBuffer, conditioner *dsp.Conditioner,
	sampleRate, preStimulusMs, epochDurationMs, artifactThreshold float64) *Extractor {

	preSamples := int64(math.Round(preStimulusMs / 1000 * sampleRate))
	postSamples := int64(math.Round(epochDurationMs / 1000 * sampleRate))

	return &Extractor{
		buffer:            buffer,
		conditioner:       conditioner,
		sampleRate:        sampleRate,
		preSamples:        preSamples,
		totalSamples:      preSamples + postSamples,
		artifactThreshold: artifactThreshold,
	}
}

// TotalSamples returns the epoch length in samples.
func (e *Extractor) TotalSamples() int64 {
	return e.totalSamples
}

// PreSamples returns the baseline length in samples.
func (e *Extractor) PreSamples() int64 {
	return e.preSamples
}

// Extract produces the conditioned epoch around the resolved marker sample
// index. ok is false when the window was evicted, has not fully arrived,
// or fails the artifact amplitude check; the epoch is simply unusable and
// the caller moves on.
func (e *Extractor) Extract(markerIndex int64) (*models.Epoch, bool) {
	window, ok := e.buffer.ExtractWindow(markerIndex-e.preSamples, e.totalSamples)
	if !ok {
		return nil, false
	}

	epoch := &models.Epoch{
		Data:       window,
		PreSamples: int(e.preSamples),
		SampleRate: e.sampleRate,
	}
	e.conditioner.Process(epoch)

	if dsp.ExceedsAmplitude(epoch, e.artifactThreshold) {
		return nil, false
	}
	return epoch, true
}
