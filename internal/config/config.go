package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Session    SessionConfig    `mapstructure:"session"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	DSP        DSPConfig        `mapstructure:"dsp"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SessionConfig holds the acquisition settings fixed for a session.
type SessionConfig struct {
	Channels      int     `mapstructure:"channels"`
	SampleRate    float64 `mapstructure:"sample_rate"`
	BufferSeconds float64 `mapstructure:"buffer_seconds"`
	MontageFile   string  `mapstructure:"montage_file"`
}

// PipelineConfig holds the epoch extraction and conditioning settings.
type PipelineConfig struct {
	EpochDuration     float64 `mapstructure:"epoch_duration"` // ms post-stimulus
	PreStimulus       float64 `mapstructure:"pre_stimulus"`   // ms
	FilterLowcut      float64 `mapstructure:"filter_lowcut"`  // Hz
	FilterHighcut     float64 `mapstructure:"filter_highcut"` // Hz
	SpatialFiltering  string  `mapstructure:"spatial_filtering"`
	ArtifactThreshold float64 `mapstructure:"artifact_threshold"` // µV, 0 disables
}

// DSPConfig holds the optional drift/powerline stages.
type DSPConfig struct {
	DCBlockEnabled bool    `mapstructure:"dc_block_enabled"`
	DCBlockAlpha   float64 `mapstructure:"dc_block_alpha"`
	NotchEnabled   bool    `mapstructure:"notch_enabled"`
	NotchFreq      float64 `mapstructure:"notch_freq"` // 50 Europe, 60 Americas
	NotchHarmonics int     `mapstructure:"notch_harmonics"`
	NotchQ         float64 `mapstructure:"notch_q"`
}

// ClassifierConfig holds the training settings.
type ClassifierConfig struct {
	FeatureMode      string `mapstructure:"feature_mode"` // downsample | windows
	DownsampleFactor int    `mapstructure:"downsample_factor"`
	ModelKey         string `mapstructure:"model_key"`
	Seed             int64  `mapstructure:"seed"` // 0 = clock-seeded shuffle
}

// DatabaseConfig holds the model store settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Session defaults
	v.SetDefault("session.channels", 8)
	v.SetDefault("session.sample_rate", 250.0)
	v.SetDefault("session.buffer_seconds", 10.0)
	v.SetDefault("session.montage_file", "config/montage.yaml")

	// Pipeline defaults
	v.SetDefault("pipeline.epoch_duration", 800.0)
	v.SetDefault("pipeline.pre_stimulus", 200.0)
	v.SetDefault("pipeline.filter_lowcut", 0.5)
	v.SetDefault("pipeline.filter_highcut", 30.0)
	v.SetDefault("pipeline.spatial_filtering", "car")
	v.SetDefault("pipeline.artifact_threshold", 0.0)

	// DSP defaults
	v.SetDefault("dsp.dc_block_enabled", false)
	v.SetDefault("dsp.dc_block_alpha", 0.995)
	v.SetDefault("dsp.notch_enabled", false)
	v.SetDefault("dsp.notch_freq", 60.0)
	v.SetDefault("dsp.notch_harmonics", 3)
	v.SetDefault("dsp.notch_q", 30.0)

	// Classifier defaults
	v.SetDefault("classifier.feature_mode", "downsample")
	v.SetDefault("classifier.downsample_factor", 8)
	v.SetDefault("classifier.model_key", "p300-lda")
	v.SetDefault("classifier.seed", 0)

	// Database defaults
	v.SetDefault("database.path", "data/phantomspell.db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("PSPELL") // e.g., PSPELL_SESSION_SAMPLE_RATE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
