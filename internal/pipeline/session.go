// Package pipeline wires the acquisition-to-classification path together:
// ring buffer ingestion, marker alignment, epoch extraction, calibration
// collection, training and live trial decoding for one session.
package pipeline

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yelabb/phantomSpell-sub001/internal/config"
	"github.com/yelabb/phantomSpell-sub001/internal/dsp"
	"github.com/yelabb/phantomSpell-sub001/internal/lda"
	"github.com/yelabb/phantomSpell-sub001/internal/models"
	"github.com/yelabb/phantomSpell-sub001/internal/speller"
	"github.com/yelabb/phantomSpell-sub001/internal/stream"
)

// Session owns the per-session pipeline state. Samples are pushed by a
// single producer; markers, calibration data and the model are guarded so
// training can run off the ingestion path.
type Session struct {
	ID  string
	log *zap.Logger
	cfg *config.Config

	buffer    *stream.RingBuffer
	clock     *stream.SampleClock
	extractor *Extractor

	mu          sync.Mutex
	markers     []models.Marker
	calibration []models.LabeledEpoch
	model       *models.LDAModel

	droppedEpochs int
}

// NewSession builds the buffer, clock and conditioning chain for the
// configured montage. The clock starts uncalibrated; the first pushed
// sample anchors it.
func NewSession(cfg *config.Config, montage *models.Montage, log *zap.Logger) *Session {
	channels := cfg.Session.Channels
	if montage != nil && len(montage.Channels) > 0 {
		channels = len(montage.Channels)
	}

	var carExclude []int
	if montage != nil {
		carExclude = montage.CARExcluded()
	}

	buffer := stream.NewRingBuffer(channels, cfg.Session.BufferSeconds, cfg.Session.SampleRate)
	conditioner := dsp.NewConditioner(dsp.ConditionerConfig{
		SampleRate:     cfg.Session.SampleRate,
		FilterLowcut:   cfg.Pipeline.FilterLowcut,
		FilterHighcut:  cfg.Pipeline.FilterHighcut,
		Spatial:        dsp.SpatialFilter(cfg.Pipeline.SpatialFiltering),
		CARExclude:     carExclude,
		DCBlockEnabled: cfg.DSP.DCBlockEnabled,
		DCBlockAlpha:   cfg.DSP.DCBlockAlpha,
		NotchEnabled:   cfg.DSP.NotchEnabled,
		NotchFreq:      cfg.DSP.NotchFreq,
		NotchHarmonics: cfg.DSP.NotchHarmonics,
		NotchQ:         cfg.DSP.NotchQ,
	})

	return &Session{
		ID:     uuid.NewString(),
		log:    log,
		cfg:    cfg,
		buffer: buffer,
		clock:  stream.NewSampleClock(cfg.Session.SampleRate),
		extractor: NewExtractor(buffer, conditioner, cfg.Session.SampleRate,
			cfg.Pipeline.PreStimulus, cfg.Pipeline.EpochDuration,
			cfg.Pipeline.ArtifactThreshold),
	}
}

// PushSample ingests one stream sample. It never blocks on training or
// classification. The first sample anchors the stimulus/sample clock.
func (s *Session) PushSample(sample models.StreamSample) {
	s.buffer.Push(sample)
	if !s.clock.IsCalibrated() {
		s.clock.SetOrigin(sample.Timestamp, s.buffer.TotalWritten()-1)
	}
}

// ReanchorClock re-records the timestamp/index correspondence, e.g. after
// a stream gap or device renegotiation.
func (s *Session) ReanchorClock(wallClockMs float64) {
	s.clock.SetOrigin(wallClockMs, s.buffer.TotalWritten()-1)
}

// OnFlash resolves a flash event's timestamp onto the sample stream and
// records the marker. Calling it before any sample has arrived is a
// sequencing error and is returned as such.
func (s *Session) OnFlash(event models.FlashEvent) error {
	index, err := s.clock.Resolve(event.Timestamp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.markers = append(s.markers, models.Marker{Event: event, SampleIndex: index})
	s.mu.Unlock()
	return nil
}

// PendingMarkers returns how many markers await epoch extraction.
func (s *Session) PendingMarkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}

// CollectCalibration extracts and labels an epoch for every pending marker
// and moves the usable ones into the calibration set. Unusable epochs
// (evicted, not yet arrived, artifact) are dropped, not errors. Markers
// are cleared afterwards. Returns (collected, dropped).
func (s *Session) CollectCalibration() (int, int) {
	s.mu.Lock()
	markers := s.markers
	s.markers = nil
	s.mu.Unlock()

	collected, dropped := 0, 0
	var labeled []models.LabeledEpoch
	for _, m := range markers {
		epoch, ok := s.extractor.Extract(m.SampleIndex)
		if !ok {
			dropped++
			continue
		}
		label := 0
		if m.Event.ContainsTarget {
			label = 1
		}
		labeled = append(labeled, models.LabeledEpoch{
			Epoch:      epoch,
			Label:      label,
			FlashType:  m.Event.Type,
			FlashIndex: m.Event.Index,
			Timestamp:  m.Event.Timestamp,
		})
		collected++
	}

	s.mu.Lock()
	s.calibration = append(s.calibration, labeled...)
	s.mu.Unlock()

	if dropped > 0 {
		s.droppedEpochs += dropped
		s.log.Debug("Dropped unusable calibration epochs",
			zap.Int("dropped", dropped), zap.Int("collected", collected))
	}
	return collected, dropped
}

// CalibrationSize returns the number of labeled epochs accumulated so far.
func (s *Session) CalibrationSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calibration)
}

// Train fits a new model from the accumulated calibration set and installs
// it on the session. It is CPU-bound and should be run off the ingestion
// path; the ingestion side never waits on it.
func (s *Session) Train() (*models.LDAModel, error) {
	s.mu.Lock()
	data := make([]models.LabeledEpoch, len(s.calibration))
	copy(data, s.calibration)
	s.mu.Unlock()

	model, err := lda.Train(data, lda.Options{
		FeatureMode:      models.FeatureMode(s.cfg.Classifier.FeatureMode),
		DownsampleFactor: s.cfg.Classifier.DownsampleFactor,
		Seed:             s.cfg.Classifier.Seed,
		Logger:           s.log,
	})
	if err != nil {
		return nil, err
	}

	s.SetModel(model)
	s.log.Info("Classifier trained",
		zap.Int("nSamples", model.NSamples),
		zap.Int("nFeatures", model.NFeatures),
		zap.Float64("cvAccuracy", model.TrainingAccuracy),
		zap.String("featureMode", string(model.FeatureMode)))
	return model, nil
}

// TrainAsync runs Train on its own goroutine and delivers the outcome to
// the callback.
func (s *Session) TrainAsync(done func(*models.LDAModel, error)) {
	go func() {
		done(s.Train())
	}()
}

// SetModel installs a (possibly reloaded) model on the session.
func (s *Session) SetModel(model *models.LDAModel) {
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
}

// Model returns the active model, or nil before any training or load.
func (s *Session) Model() *models.LDAModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// EndTrial scores an epoch for every pending marker against the active
// model and aggregates the flash scores into one character prediction.
// Markers are cleared; missing epochs degrade confidence instead of
// aborting the trial. ok is false only when no model is loaded.
func (s *Session) EndTrial() (models.Prediction, bool) {
	s.mu.Lock()
	model := s.model
	if model == nil {
		s.mu.Unlock()
		return models.Prediction{}, false
	}
	markers := s.markers
	s.markers = nil
	s.mu.Unlock()

	events := make([]models.FlashEvent, 0, len(markers))
	scores := make([]float64, 0, len(markers))
	dropped := 0
	for _, m := range markers {
		epoch, ok := s.extractor.Extract(m.SampleIndex)
		if !ok {
			dropped++
			continue
		}
		events = append(events, m.Event)
		scores = append(scores, lda.Classify(model, epoch, s.cfg.Classifier.DownsampleFactor))
	}
	if dropped > 0 {
		s.droppedEpochs += dropped
		s.log.Debug("Dropped unusable trial epochs", zap.Int("dropped", dropped))
	}

	return speller.AggregateFlashScores(events, scores), true
}

// DroppedEpochs reports how many epochs have been dropped as unusable over
// the session lifetime, a stream-health quality signal.
func (s *Session) DroppedEpochs() int {
	return s.droppedEpochs
}
