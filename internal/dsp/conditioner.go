package dsp

import (
	"math"

	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

// SpatialFilter names the spatial re-referencing strategy.
type SpatialFilter string

const (
	SpatialNone SpatialFilter = "none"
	SpatialCAR  SpatialFilter = "car"
	// SpatialLaplacian is recognized in configuration but not implemented;
	// the conditioner falls back to no spatial filtering.
	SpatialLaplacian SpatialFilter = "laplacian"
)

// ConditionerConfig selects and parameterizes the conditioning stages.
type ConditionerConfig struct {
	SampleRate float64

	// Bandpass cutoffs in Hz. Zero values disable band-limiting.
	FilterLowcut  float64
	FilterHighcut float64

	Spatial    SpatialFilter
	CARExclude []int

	// Optional drift/powerline stages ahead of the bandpass.
	DCBlockEnabled bool
	DCBlockAlpha   float64
	NotchEnabled   bool
	NotchFreq      float64
	NotchHarmonics int
	NotchQ         float64
}

// Conditioner applies the per-epoch filtering chain: drift removal and
// powerline notching (optional), band-limiting, spatial re-referencing
// (optional), then baseline correction. Order matters: filtering first,
// then the spatial reference, then baseline correction so the discriminant
// is invariant to the pre-stimulus DC level.
type Conditioner struct {
	cfg      ConditionerConfig
	bandpass *Biquad
	notch    *NotchBank
	dcBlock  *DCBlocker
	excluded map[int]bool
}

// NewConditioner builds the chain for the given configuration.
func NewConditioner(cfg ConditionerConfig) *Conditioner {
	c := &Conditioner{cfg: cfg}

	if cfg.DCBlockEnabled {
		alpha := cfg.DCBlockAlpha
		if alpha <= 0 || alpha >= 1 {
			alpha = 0.995
		}
		c.dcBlock = NewDCBlocker(alpha)
	}
	if cfg.NotchEnabled && cfg.NotchFreq > 0 {
		q := cfg.NotchQ
		if q <= 0 {
			q = 30
		}
		harmonics := cfg.NotchHarmonics
		if harmonics < 1 {
			harmonics = 1
		}
		c.notch = NewNotchBank(cfg.NotchFreq, harmonics, q, cfg.SampleRate)
	}
	if cfg.FilterLowcut > 0 && cfg.FilterHighcut > cfg.FilterLowcut {
		c.bandpass = NewBandpass(cfg.FilterLowcut, cfg.FilterHighcut, cfg.SampleRate)
	}

	c.excluded = make(map[int]bool, len(cfg.CARExclude))
	for _, ch := range cfg.CARExclude {
		c.excluded[ch] = true
	}

	return c
}

// Process runs the epoch through the full chain in place.
func (c *Conditioner) Process(epoch *models.Epoch) {
	for ch := range epoch.Data {
		if c.dcBlock != nil {
			epoch.Data[ch] = c.dcBlock.Apply(epoch.Data[ch])
		}
		if c.notch != nil {
			epoch.Data[ch] = c.notch.Apply(epoch.Data[ch])
		}
		if c.bandpass != nil {
			epoch.Data[ch] = c.bandpass.Apply(epoch.Data[ch])
		}
	}

	if c.cfg.Spatial == SpatialCAR {
		CommonAverage(epoch, c.excluded)
	}

	BaselineCorrect(epoch)
}

// CommonAverage subtracts the cross-channel mean from every channel at
// each time point. Channels in excluded do not contribute to the mean but
// are still re-referenced.
func CommonAverage(epoch *models.Epoch, excluded map[int]bool) {
	included := 0
	for ch := range epoch.Data {
		if !excluded[ch] {
			included++
		}
	}
	if included == 0 {
		return
	}

	for i := 0; i < epoch.Samples(); i++ {
		sum := 0.0
		for ch := range epoch.Data {
			if !excluded[ch] {
				sum += epoch.Data[ch][i]
			}
		}
		avg := sum / float64(included)
		for ch := range epoch.Data {
			epoch.Data[ch][i] -= avg
		}
	}
}

// BaselineCorrect subtracts each channel's mean over the pre-stimulus
// window from every sample of that channel.
func BaselineCorrect(epoch *models.Epoch) {
	if epoch.PreSamples <= 0 {
		return
	}
	for ch := range epoch.Data {
		sum := 0.0
		for i := 0; i < epoch.PreSamples; i++ {
			sum += epoch.Data[ch][i]
		}
		mean := sum / float64(epoch.PreSamples)
		for i := range epoch.Data[ch] {
			epoch.Data[ch][i] -= mean
		}
	}
}

// ExceedsAmplitude reports whether any sample in the epoch exceeds the
// given absolute amplitude. Epochs failing this check are dropped as
// artifact-contaminated rather than fed to the classifier.
func ExceedsAmplitude(epoch *models.Epoch, threshold float64) bool {
	if threshold <= 0 {
		return false
	}
	for ch := range epoch.Data {
		for _, v := range epoch.Data[ch] {
			if math.Abs(v) > threshold {
				return true
			}
		}
	}
	return false
}
