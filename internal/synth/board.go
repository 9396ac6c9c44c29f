// Package synth generates realistic multichannel EEG for development and
// end-to-end exercise of the pipeline: per-channel rhythm mixes, powerline
// interference, slow drift, Gaussian noise and injectable P300 deflections
// time-locked to target flashes.
package synth

import (
	"math"
	"math/rand"

	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

// Mix of alpha, beta and theta rhythms, cycled across channels.
var (
	defaultFreqs = []float64{10.0, 10.5, 22.0, 11.0, 6.0, 9.0, 25.0, 10.0}
	defaultAmps  = []float64{30.0, 35.0, 10.0, 25.0, 20.0, 30.0, 8.0, 28.0}
)

// bump is one pending P300 deflection: a Gaussian centered latencyMs after
// the flash that evoked it.
type bump struct {
	centerMs  float64
	amplitude float64
	widthMs   float64
}

// Board is a deterministic (seeded) synthetic EEG source. It advances one
// sample per call to Next, keeping its own millisecond clock.
type Board struct {
	channels    int
	sampleRate  float64
	rng         *rand.Rand
	phases      []float64
	powerlineHz float64
	powerlinePh float64
	noiseSigma  float64
	nowMs       float64
	bumps       []bump
}

// NewBoard creates a synthetic board. The seed makes runs reproducible.
func NewBoard(channels int, sampleRate float64, seed int64) *Board {
	return &Board{
		channels:    channels,
		sampleRate:  sampleRate,
		rng:         rand.New(rand.NewSource(seed)),
		phases:      make([]float64, channels),
		powerlineHz: 60.0,
		noiseSigma:  3.0,
	}
}

// NowMs returns the board's current clock in milliseconds.
func (b *Board) NowMs() float64 {
	return b.nowMs
}

// InjectP300 schedules a positive deflection peaking latencyMs after
// flashMs, mimicking the attended-stimulus response.
func (b *Board) InjectP300(flashMs, latencyMs, amplitude float64) {
	b.bumps = append(b.bumps, bump{
		centerMs:  flashMs + latencyMs,
		amplitude: amplitude,
		widthMs:   60.0,
	})
}

// Next produces the next sample and advances the board clock by one
// sample interval.
func (b *Board) Next() models.StreamSample {
	dt := 1.0 / b.sampleRate
	b.nowMs += dt * 1000

	b.powerlinePh += 2 * math.Pi * b.powerlineHz * dt
	powerline := 15 * math.Sin(b.powerlinePh)
	drift := 50 * math.Sin(2*math.Pi*0.05*b.nowMs/1000)

	p300 := 0.0
	for _, bp := range b.bumps {
		d := b.nowMs - bp.centerMs
		if math.Abs(d) < 4*bp.widthMs {
			p300 += bp.amplitude * math.Exp(-d*d/(2*bp.widthMs*bp.widthMs))
		}
	}
	b.pruneBumps()

	channels := make([]float64, b.channels)
	for ch := 0; ch < b.channels; ch++ {
		freq := defaultFreqs[ch%len(defaultFreqs)]
		amp := defaultAmps[ch%len(defaultAmps)]
		b.phases[ch] += 2 * math.Pi * freq * dt

		rhythm := amp * math.Sin(b.phases[ch])
		noise := b.rng.NormFloat64() * b.noiseSigma
		channels[ch] = rhythm + powerline + drift + noise + p300
	}

	return models.StreamSample{Timestamp: b.nowMs, Channels: channels}
}

// pruneBumps drops deflections whose tails have fully passed.
func (b *Board) pruneBumps() {
	kept := b.bumps[:0]
	for _, bp := range b.bumps {
		if b.nowMs < bp.centerMs+4*bp.widthMs {
			kept = append(kept, bp)
		}
	}
	b.bumps = kept
}
