package main

import (
	"go.uber.org/zap"

	"github.com/yelabb/phantomSpell-sub001/internal/config"
	"github.com/yelabb/phantomSpell-sub001/internal/database"
	logger "github.com/yelabb/phantomSpell-sub001/internal/logging"
	"github.com/yelabb/phantomSpell-sub001/internal/models"
	"github.com/yelabb/phantomSpell-sub001/internal/pipeline"
	"github.com/yelabb/phantomSpell-sub001/internal/repository"
	"github.com/yelabb/phantomSpell-sub001/internal/synth"
)

const (
	flashIntervalMs = 300.0 // stimulus onset asynchrony
	p300LatencyMs   = 300.0
	p300AmplitudeUV = 8.0
	settleMs        = 1000.0 // post-trial stream time so late epochs arrive
)

func main() {
	// Initialize Logger
	log, err := logger.Init("logs", logger.Rotation{})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize Configuration
	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	cfg := config.Conf

	// Initialize the model store
	if err := database.Init(cfg.Database.Path, log); err != nil {
		log.Fatal("Failed to open model store", zap.Error(err))
	}

	// Load the electrode montage at startup
	montage, err := models.LoadMontage(cfg.Session.MontageFile)
	if err != nil {
		log.Warn("No montage file, using configured channel count", zap.Error(err))
		montage = nil
	}

	session := pipeline.NewSession(cfg, montage, log)
	log.Info("Session started",
		zap.String("sessionID", session.ID),
		zap.Float64("sampleRate", cfg.Session.SampleRate))

	// Restore the last trained model, if any
	model, err := repository.LoadModel(cfg.Classifier.ModelKey)
	if err != nil {
		log.Error("Failed to load stored model", zap.Error(err))
	}
	if model != nil {
		session.SetModel(model)
		log.Info("Restored trained model",
			zap.Time("trainedAt", model.TrainedAt),
			zap.Float64("cvAccuracy", model.TrainingAccuracy))
	}

	channels := cfg.Session.Channels
	if montage != nil && len(montage.Channels) > 0 {
		channels = len(montage.Channels)
	}
	board := synth.NewBoard(channels, cfg.Session.SampleRate, cfg.Classifier.Seed+1)

	// Calibrate and train if no usable model was restored
	if session.Model() == nil {
		log.Info("No trained model, running calibration")
		runFlashBlock(session, board, log, 5, 2, 3)
		collected, dropped := session.CollectCalibration()
		log.Info("Calibration collected",
			zap.Int("epochs", collected), zap.Int("dropped", dropped))

		trained, err := session.Train()
		if err != nil {
			log.Fatal("Training failed", zap.Error(err))
		}
		if err := repository.SaveModel(cfg.Classifier.ModelKey, trained); err != nil {
			log.Error("Failed to persist trained model", zap.Error(err))
		}
	}

	// One live trial: the simulated user attends row 4, column 1
	runFlashBlock(session, board, log, 2, 4, 1)
	prediction, ok := session.EndTrial()
	if !ok {
		log.Fatal("No model available for live trial")
	}

	log.Info("Trial decoded",
		zap.Int("predictedRow", prediction.PredictedRow),
		zap.Int("predictedCol", prediction.PredictedCol),
		zap.Float64("confidence", prediction.Confidence),
		zap.Float64("latencyMs", prediction.Latency),
		zap.Int("droppedEpochs", session.DroppedEpochs()))
}

// runFlashBlock streams synthetic EEG while presenting reps repetitions of
// all 12 row/column flashes, injecting a P300 deflection after flashes
// containing the attended cell.
func runFlashBlock(session *pipeline.Session, board *synth.Board, log *zap.Logger,
	reps, targetRow, targetCol int) {

	type flash struct {
		ftype models.FlashType
		index int
	}
	var order []flash
	for rep := 0; rep < reps; rep++ {
		for i := 0; i < models.MatrixSize; i++ {
			order = append(order, flash{models.FlashRow, i})
		}
		for i := 0; i < models.MatrixSize; i++ {
			order = append(order, flash{models.FlashCol, i})
		}
	}

	nextFlash := board.NowMs() + flashIntervalMs
	for _, f := range order {
		streamUntil(session, board, nextFlash)

		containsTarget := (f.ftype == models.FlashRow && f.index == targetRow) ||
			(f.ftype == models.FlashCol && f.index == targetCol)
		event := models.FlashEvent{
			Type:           f.ftype,
			Index:          f.index,
			Timestamp:      board.NowMs(),
			ContainsTarget: containsTarget,
		}
		if containsTarget {
			board.InjectP300(board.NowMs(), p300LatencyMs, p300AmplitudeUV)
		}
		if err := session.OnFlash(event); err != nil {
			log.Error("Failed to record flash marker", zap.Error(err))
		}
		nextFlash += flashIntervalMs
	}

	// Keep streaming so the last epochs fully arrive before extraction.
	streamUntil(session, board, nextFlash+settleMs)
}

// streamUntil pushes synthetic samples into the session until the board
// clock passes untilMs.
func streamUntil(session *pipeline.Session, board *synth.Board, untilMs float64) {
	for board.NowMs() < untilMs {
		session.PushSample(board.Next())
	}
}
