package models

import "time"

// FlashType identifies whether a flash illuminated a row or a column
// of the 6x6 speller matrix.
type FlashType string

const (
	FlashRow FlashType = "row"
	FlashCol FlashType = "col"
)

// MatrixSize is the number of rows (and columns) in the speller matrix.
const MatrixSize = 6

// FlashEvent is one row or column illumination reported by the stimulus
// presenter. Timestamp is wall-clock milliseconds.
type FlashEvent struct {
	Type           FlashType `json:"type"`
	Index          int       `json:"index"`
	Timestamp      float64   `json:"timestamp"`
	ContainsTarget bool      `json:"containsTarget"`
}

// Marker is a FlashEvent bound to the absolute EEG sample index it
// corresponds to. Markers are append-only within a trial.
type Marker struct {
	Event       FlashEvent `json:"event"`
	SampleIndex int64      `json:"sampleIndex"`
}

// StreamSample is one multichannel EEG reading. The channel count is
// fixed for the lifetime of a session.
type StreamSample struct {
	Timestamp float64   `json:"timestamp"`
	Channels  []float64 `json:"channels"`
}

// Epoch is a conditioned [channels x samples] window time-locked to a
// stimulus event. PreSamples marks the stimulus onset: Data[ch][:PreSamples]
// is the pre-stimulus baseline window.
type Epoch struct {
	Data       [][]float64
	PreSamples int
	SampleRate float64
}

// Channels returns the number of channels in the epoch.
func (e *Epoch) Channels() int {
	return len(e.Data)
}

// Samples returns the number of samples per channel.
func (e *Epoch) Samples() int {
	if len(e.Data) == 0 {
		return 0
	}
	return len(e.Data[0])
}

// PostSamples returns the number of post-stimulus samples.
func (e *Epoch) PostSamples() int {
	return e.Samples() - e.PreSamples
}

// LabeledEpoch is one calibration datum: a conditioned epoch together
// with its target/non-target label.
type LabeledEpoch struct {
	Epoch      *Epoch    `json:"-"`
	Label      int       `json:"label"` // 1 = target, 0 = non-target
	FlashType  FlashType `json:"flashType"`
	FlashIndex int       `json:"flashIndex"`
	Timestamp  float64   `json:"timestamp"`
}

// FeatureMode selects the feature extraction strategy. It is fixed at
// training time and recorded in the model.
type FeatureMode string

const (
	FeatureDownsample   FeatureMode = "downsample"
	FeatureNamedWindows FeatureMode = "windows"
)

// LDAModel is a fitted two-class linear discriminant. Immutable once
// produced; retraining supersedes it with a fresh model.
type LDAModel struct {
	Weights          []float64   `json:"weights"`
	Threshold        float64     `json:"threshold"`
	NFeatures        int         `json:"nFeatures"`
	TrainingAccuracy float64     `json:"trainingAccuracy"`
	NSamples         int         `json:"nSamples"`
	FeatureMode      FeatureMode `json:"featureMode"`
	TrainedAt        time.Time   `json:"trainedAt"`
}

// Prediction is the decoded character selection for one completed trial.
type Prediction struct {
	PredictedRow int        `json:"predictedRow"`
	PredictedCol int        `json:"predictedCol"`
	Confidence   float64    `json:"confidence"`
	RowScores    [6]float64 `json:"rowScores"`
	ColScores    [6]float64 `json:"colScores"`
	Latency      float64    `json:"latency"` // ms, first flash to last flash
}

// ClassifierRecord is the durable key-value row a serialized LDAModel is
// persisted under. One user, one active model per key.
type ClassifierRecord struct {
	Key       string `gorm:"primaryKey"`
	Payload   []byte
	UpdatedAt time.Time
}
