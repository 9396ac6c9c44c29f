package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation holds the rotating-file settings. Zero values fall back to the
// package defaults so the logger can be built before configuration loads.
type Rotation struct {
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

func (r Rotation) withDefaults() Rotation {
	if r.MaxSize <= 0 {
		r.MaxSize = 10
	}
	if r.MaxBackups <= 0 {
		r.MaxBackups = 3
	}
	if r.MaxAge <= 0 {
		r.MaxAge = 7
	}
	return r
}

// Init initializes and returns a new zap logger writing a rotating JSON
// session log plus a separate error log, teed with a readable console core.
func Init(logDir string, rotation Rotation) (*zap.Logger, error) {
	// Encoder configuration for file logs (JSON format)
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:   "message",
		LevelKey:     "level",
		TimeKey:      "time",
		CallerKey:    "caller",
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	rotation = rotation.withDefaults()

	// The session core takes everything from Debug up; the error core keeps
	// a smaller, longer-lived file with only the problems in it.
	sessionCore, err := newFileCore(logDir, "session.log", rotation, encoderConfig,
		zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= zapcore.DebugLevel
		}))
	if err != nil {
		return nil, err
	}
	errorCore, err := newFileCore(logDir, "errors.log", rotation, encoderConfig,
		zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= zapcore.ErrorLevel
		}))
	if err != nil {
		return nil, err
	}

	// Combine the cores. A log entry is offered to all of them, and each
	// decides whether to write it based on its LevelEnabler.
	core := zapcore.NewTee(
		sessionCore,
		errorCore,
		newConsoleCore(),
	)

	return zap.New(core, zap.AddCaller()), nil
}

// newFileCore creates a core that writes to one rotating file.
func newFileCore(logDir, name string, rotation Rotation, encoderConfig zapcore.EncoderConfig, enabler zapcore.LevelEnabler) (zapcore.Core, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, name),
		MaxSize:    rotation.MaxSize,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAge,
		Compress:   rotation.Compress,
	})

	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		writer,
		enabler,
	), nil
}

// newConsoleCore creates a core that writes to the console.
func newConsoleCore() zapcore.Core {
	levelEnabler := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.DebugLevel
	})

	// Use a more human-readable encoder for the console.
	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig),
		zapcore.AddSync(os.Stdout),
		levelEnabler,
	)
}
