// Package repository is the explicit load/save pair for trained models.
// The model itself stays caller-owned state; nothing here caches it.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yelabb/phantomSpell-sub001/internal/database"
	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

// SaveModel serializes the model and upserts it under the given key,
// superseding any previously trained model.
func SaveModel(key string, model *models.LDAModel) error {
	payload, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to serialize model: %w", err)
	}

	record := models.ClassifierRecord{Key: key, Payload: payload}
	return database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&record).Error
}

// LoadModel restores the model stored under key. A missing record is not
// an error; it returns nil so the session starts untrained.
func LoadModel(key string) (*models.LDAModel, error) {
	var record models.ClassifierRecord
	err := database.DB.First(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var model models.LDAModel
	if err := json.Unmarshal(record.Payload, &model); err != nil {
		return nil, fmt.Errorf("failed to deserialize model: %w", err)
	}
	return &model, nil
}
