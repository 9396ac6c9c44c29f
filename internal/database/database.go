package database

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	logging "github.com/yelabb/phantomSpell-sub001/internal/logging"
	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

var DB *gorm.DB

// Init opens the on-device sqlite store the trained model persists to and
// runs the migrations. One user, one store.
func Init(path string, log *zap.Logger) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create data directory: %w", err)
		}
	}

	gormLogger := logging.NewGormZapLogger(log)

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to open model store: %w", err)
	}

	log.Info("Model store opened", zap.String("path", path))
	return runMigrations(log)
}

func runMigrations(log *zap.Logger) error {
	if err := DB.AutoMigrate(&models.ClassifierRecord{}); err != nil {
		return fmt.Errorf("failed to run model store migrations: %w", err)
	}
	log.Info("Model store migrations completed successfully.")
	return nil
}
