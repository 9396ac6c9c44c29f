package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yelabb/phantomSpell-sub001/internal/config"
	"github.com/yelabb/phantomSpell-sub001/internal/models"
	"github.com/yelabb/phantomSpell-sub001/internal/stream"
	"github.com/yelabb/phantomSpell-sub001/internal/synth"
)

func testConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{
			Channels:      4,
			SampleRate:    250,
			BufferSeconds: 30,
		},
		Pipeline: config.PipelineConfig{
			EpochDuration:    800,
			PreStimulus:      200,
			FilterLowcut:     0.5,
			FilterHighcut:    30,
			SpatialFiltering: "none",
		},
		Classifier: config.ClassifierConfig{
			FeatureMode:      "downsample",
			DownsampleFactor: 8,
			Seed:             7,
		},
	}
}

func TestFlashBeforeAnySampleIsSequencingError(t *testing.T) {
	s := NewSession(testConfig(), nil, zap.NewNop())

	err := s.OnFlash(models.FlashEvent{Type: models.FlashRow, Index: 0, Timestamp: 100})
	assert.ErrorIs(t, err, stream.ErrNotCalibrated)
}

func TestExtractorGeometry(t *testing.T) {
	s := NewSession(testConfig(), nil, zap.NewNop())

	// 200 ms pre + 800 ms post at 250 SPS.
	assert.Equal(t, int64(50), s.extractor.PreSamples())
	assert.Equal(t, int64(250), s.extractor.TotalSamples())
}

func TestUnusableEpochsAreDroppedNotFatal(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, nil, zap.NewNop())
	board := synth.NewBoard(4, cfg.Session.SampleRate, 11)

	// Stream one second, then flash; the post-stimulus window has not
	// arrived yet, so the epoch is dropped.
	for board.NowMs() < 1000 {
		s.PushSample(board.Next())
	}
	require.NoError(t, s.OnFlash(models.FlashEvent{
		Type: models.FlashRow, Index: 0, Timestamp: board.NowMs(), ContainsTarget: true,
	}))

	collected, dropped := s.CollectCalibration()
	assert.Zero(t, collected)
	assert.Equal(t, 1, dropped)

	// Stream past the epoch end and the same flash would now extract.
	require.NoError(t, s.OnFlash(models.FlashEvent{
		Type: models.FlashRow, Index: 0, Timestamp: board.NowMs(), ContainsTarget: true,
	}))
	for board.NowMs() < 3000 {
		s.PushSample(board.Next())
	}
	collected, dropped = s.CollectCalibration()
	assert.Equal(t, 1, collected)
	assert.Zero(t, dropped)
	assert.Equal(t, 1, s.CalibrationSize())
}

func TestEvictedEpochIsDropped(t *testing.T) {
	cfg := testConfig()
	cfg.Session.BufferSeconds = 2 // tiny buffer forces eviction
	s := NewSession(cfg, nil, zap.NewNop())
	board := synth.NewBoard(4, cfg.Session.SampleRate, 12)

	for board.NowMs() < 500 {
		s.PushSample(board.Next())
	}
	require.NoError(t, s.OnFlash(models.FlashEvent{
		Type: models.FlashCol, Index: 2, Timestamp: board.NowMs(),
	}))

	// By the time we extract, the marker's window has been overwritten.
	for board.NowMs() < 6000 {
		s.PushSample(board.Next())
	}
	collected, dropped := s.CollectCalibration()
	assert.Zero(t, collected)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, s.DroppedEpochs())
}

func TestEndTrialWithoutModel(t *testing.T) {
	s := NewSession(testConfig(), nil, zap.NewNop())
	_, ok := s.EndTrial()
	assert.False(t, ok)
}

// TestCalibrateTrainDecode drives the whole pipeline the way a session
// does: synthetic calibration with P300 injection on the attended cell,
// training, then a live trial that must decode the new attended cell.
func TestCalibrateTrainDecode(t *testing.T) {
	cfg := testConfig()
	s := NewSession(cfg, nil, zap.NewNop())
	board := synth.NewBoard(4, cfg.Session.SampleRate, 13)

	runBlock := func(reps, targetRow, targetCol int) {
		const soa = 300.0
		next := board.NowMs() + soa
		for rep := 0; rep < reps; rep++ {
			for _, ftype := range []models.FlashType{models.FlashRow, models.FlashCol} {
				for i := 0; i < models.MatrixSize; i++ {
					for board.NowMs() < next {
						s.PushSample(board.Next())
					}
					target := (ftype == models.FlashRow && i == targetRow) ||
						(ftype == models.FlashCol && i == targetCol)
					if target {
						board.InjectP300(board.NowMs(), 300, 8)
					}
					require.NoError(t, s.OnFlash(models.FlashEvent{
						Type: ftype, Index: i,
						Timestamp: board.NowMs(), ContainsTarget: target,
					}))
					next += soa
				}
			}
		}
		for board.NowMs() < next+1000 {
			s.PushSample(board.Next())
		}
	}

	// Calibration: user attends row 2, column 3.
	runBlock(3, 2, 3)
	collected, dropped := s.CollectCalibration()
	require.Zero(t, dropped)
	require.Equal(t, 3*12, collected)

	model, err := s.Train()
	require.NoError(t, err)
	assert.Greater(t, model.TrainingAccuracy, 0.9)

	// Live trial: user attends row 4, column 1.
	runBlock(2, 4, 1)
	pred, ok := s.EndTrial()
	require.True(t, ok)
	assert.Equal(t, 4, pred.PredictedRow)
	assert.Equal(t, 1, pred.PredictedCol)
	assert.Greater(t, pred.Confidence, 0.0)
	assert.Greater(t, pred.Latency, 0.0)
}
