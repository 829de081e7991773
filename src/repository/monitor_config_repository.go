package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shadowmonitor/src/database"
	"shadowmonitor/src/model"
)

// MonitorConfigRepository persists the operator's monitor config set.
type MonitorConfigRepository struct {
	db *gorm.DB
}

// NewMonitorConfigRepository creates a new repository instance using the main database.
func NewMonitorConfigRepository() *MonitorConfigRepository {
	return &MonitorConfigRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *MonitorConfigRepository) WithDB(db *gorm.DB) *MonitorConfigRepository {
	return &MonitorConfigRepository{db: db}
}

// List returns every stored config in insertion order.
func (r *MonitorConfigRepository) List(ctx context.Context) ([]model.MonitorConfig, error) {
	var configs []model.MonitorConfig

	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&configs).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "MonitorConfigRepository",
			"op":   "List",
		}).WithError(err).Error("Failed to list monitor configs")

		return nil, err
	}

	return configs, nil
}

// ReplaceAll deletes the stored set and inserts configs in one transaction.
// On error nothing changes. configs receive their generated IDs.
func (r *MonitorConfigRepository) ReplaceAll(ctx context.Context, configs []model.MonitorConfig) error {
	logger.WithFields(map[string]interface{}{
		"repo":  "MonitorConfigRepository",
		"op":    "ReplaceAll",
		"count": len(configs),
	}).Debug("Replacing monitor configs")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.MonitorConfig{}).Error; err != nil {
			return err
		}

		if len(configs) == 0 {
			return nil
		}

		return tx.Create(&configs).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "MonitorConfigRepository",
			"op":   "ReplaceAll",
		}).WithError(err).Error("Failed to replace monitor configs")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "MonitorConfigRepository",
		"op":    "ReplaceAll",
		"count": len(configs),
	}).Info("Monitor configs replaced")

	return nil
}
