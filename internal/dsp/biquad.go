// Package dsp implements the per-epoch signal conditioning chain: IIR
// band-limiting, powerline notch filtering, spatial re-referencing and
// baseline correction.
package dsp

import "math"

// Biquad is a second-order IIR section in direct form I, with coefficients
// derived via the bilinear transform. Filters are applied causally
// (forward-only) with zero initial state, independently per channel.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// NewBandpass derives a bandpass biquad from the low/high cutoffs and the
// sample rate. The center frequency is the geometric mean of the cutoffs
// and the quality factor follows from the bandwidth.
func NewBandpass(lowcut, highcut, sampleRate float64) *Biquad {
	f0 := math.Sqrt(lowcut * highcut)
	q := f0 / (highcut - lowcut)

	w0 := 2 * math.Pi * f0 / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	a0 := 1 + alpha
	return &Biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// NewNotch derives a notch biquad rejecting the given frequency with
// quality factor q (higher q = narrower notch).
func NewNotch(freq, q, sampleRate float64) *Biquad {
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	a0 := 1 + alpha
	return &Biquad{
		b0: 1 / a0,
		b1: -2 * cosw0 / a0,
		b2: 1 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// Apply filters one channel of samples forward-only from zero state and
// returns the filtered copy.
func (f *Biquad) Apply(samples []float64) []float64 {
	out := make([]float64, len(samples))
	var x1, x2, y1, y2 float64
	for i, x := range samples {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// NotchBank is a series of notch filters at a powerline fundamental and
// its harmonics, skipping any harmonic at or above Nyquist.
type NotchBank struct {
	filters []*Biquad
}

// NewNotchBank builds notch filters at fundamental, 2x, ... up to the
// requested number of harmonics.
func NewNotchBank(fundamental float64, harmonics int, q, sampleRate float64) *NotchBank {
	bank := &NotchBank{}
	nyquist := sampleRate / 2
	for i := 1; i <= harmonics; i++ {
		freq := fundamental * float64(i)
		if freq >= nyquist {
			break
		}
		bank.filters = append(bank.filters, NewNotch(freq, q, sampleRate))
	}
	return bank
}

// Apply runs the channel through every notch in series.
func (n *NotchBank) Apply(samples []float64) []float64 {
	out := samples
	for _, f := range n.filters {
		out = f.Apply(out)
	}
	return out
}

// DCBlocker is a first-order IIR drift remover,
// y[n] = x[n] - x[n-1] + alpha*y[n-1], applied per channel from zero state.
type DCBlocker struct {
	alpha float64
}

// NewDCBlocker creates a DC blocker. At 250 SPS an alpha of 0.995 puts the
// cutoff near 0.2 Hz.
func NewDCBlocker(alpha float64) *DCBlocker {
	return &DCBlocker{alpha: alpha}
}

// Apply filters one channel and returns the filtered copy.
func (d *DCBlocker) Apply(samples []float64) []float64 {
	out := make([]float64, len(samples))
	var xPrev, yPrev float64
	for i, x := range samples {
		y := x - xPrev + d.alpha*yPrev
		xPrev, yPrev = x, y
		out[i] = y
	}
	return out
}
