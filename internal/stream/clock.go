package stream

import (
	"errors"
	"math"
)

// ErrNotCalibrated is returned when the clock is asked to resolve a
// timestamp before any timestamp/index correspondence has been observed.
// This is a sequencing error on the caller's side, not a recoverable state.
var ErrNotCalibrated = errors.New("sample clock has no origin")

// SampleClock maps wall-clock event timestamps (milliseconds) onto absolute
// EEG sample indices, given one observed correspondence point and the
// session sample rate.
type SampleClock struct {
	sampleRate  float64
	originTime  float64 // wall-clock ms
	originIndex int64
	calibrated  bool
}

// NewSampleClock creates an uncalibrated clock for the given sample rate.
func NewSampleClock(sampleRate float64) *SampleClock {
	return &SampleClock{sampleRate: sampleRate}
}

// SetOrigin records a timestamp/sample-index correspondence point. It may
// be called again later to re-anchor the mapping (e.g. after a stream gap).
func (c *SampleClock) SetOrigin(wallClockMs float64, sampleIndex int64) {
	c.originTime = wallClockMs
	c.originIndex = sampleIndex
	c.calibrated = true
}

// SetSampleRate updates the sample rate, e.g. after device renegotiation.
// The origin correspondence is kept.
func (c *SampleClock) SetSampleRate(sampleRate float64) {
	c.sampleRate = sampleRate
}

// IsCalibrated reports whether an origin has been observed.
func (c *SampleClock) IsCalibrated() bool {
	return c.calibrated
}

// Resolve converts a wall-clock timestamp (ms) into the absolute sample
// index recorded at that instant.
func (c *SampleClock) Resolve(wallClockMs float64) (int64, error) {
	if !c.calibrated {
		return 0, ErrNotCalibrated
	}
	elapsed := (wallClockMs - c.originTime) / 1000.0
	return c.originIndex + int64(math.Round(elapsed*c.sampleRate)), nil
}
