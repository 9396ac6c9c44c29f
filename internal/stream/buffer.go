// Package stream holds the continuous-acquisition side of the pipeline:
// the EEG ring buffer and the stimulus/sample clock alignment.
package stream

import (
	"math"

	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

// RingBuffer is a fixed-capacity circular store of continuous multichannel
// EEG, addressed by absolute sample index. It is written by exactly one
// producer and read by one consumer; readers must check the ok result of
// ExtractWindow rather than assume availability.
type RingBuffer struct {
	channels int
	capacity int64

	// data is stored per channel in parallel slices, matching how
	// multichannel time series are kept elsewhere in the pipeline.
	data [][]float64

	// totalWritten is the monotonically increasing count of samples ever
	// pushed. The oldest resident sample is totalWritten - capacity.
	totalWritten int64
}

// NewRingBuffer creates a buffer holding duration seconds of data at the
// given sample rate. Capacity is fixed at construction.
func NewRingBuffer(channels int, duration, sampleRate float64) *RingBuffer {
	capacity := int64(math.Ceil(duration * sampleRate))
	if capacity < 1 {
		capacity = 1
	}

	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, capacity)
	}

	return &RingBuffer{
		channels: channels,
		capacity: capacity,
		data:     data,
	}
}

// Channels returns the per-sample channel count.
func (b *RingBuffer) Channels() int {
	return b.channels
}

// Capacity returns the per-channel sample capacity.
func (b *RingBuffer) Capacity() int64 {
	return b.capacity
}

// TotalWritten returns the total number of samples pushed so far.
func (b *RingBuffer) TotalWritten() int64 {
	return b.totalWritten
}

// Push writes one sample at the current write cursor and advances it.
// It never blocks and never fails; old data is silently overwritten.
// Extra channels in the sample are ignored, missing ones write zero.
func (b *RingBuffer) Push(sample models.StreamSample) {
	slot := b.totalWritten % b.capacity
	for ch := 0; ch < b.channels; ch++ {
		v := 0.0
		if ch < len(sample.Channels) {
			v = sample.Channels[ch]
		}
		b.data[ch][slot] = v
	}
	b.totalWritten++
}

// ExtractWindow returns length samples per channel starting at the absolute
// sample index start. The read is all-or-nothing: if any part of the window
// has been evicted, or has not yet arrived, ok is false and no data is
// returned.
func (b *RingBuffer) ExtractWindow(start, length int64) ([][]float64, bool) {
	if length <= 0 || start < 0 {
		return nil, false
	}
	oldest := b.totalWritten - b.capacity
	if start < oldest {
		return nil, false // evicted
	}
	if start+length > b.totalWritten {
		return nil, false // not yet arrived
	}

	window := make([][]float64, b.channels)
	for ch := 0; ch < b.channels; ch++ {
		window[ch] = make([]float64, length)
		for i := int64(0); i < length; i++ {
			window[ch][i] = b.data[ch][(start+i)%b.capacity]
		}
	}
	return window, true
}
