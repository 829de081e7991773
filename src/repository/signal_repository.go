package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shadowmonitor/src/database"
	"shadowmonitor/src/model"
)

// SignalRepository is the append-only signal log.
type SignalRepository struct {
	db *gorm.DB
}

// NewSignalRepository creates a new repository instance using the main database.
func NewSignalRepository() *SignalRepository {
	return &SignalRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *SignalRepository) WithDB(db *gorm.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Append inserts sig unless a signal with the same (symbol, interval_type, timestamp)
// is already logged. It reports whether a row was written.
func (r *SignalRepository) Append(ctx context.Context, sig *model.Signal) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(sig)
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "SignalRepository",
			"op":       "Append",
			"symbol":   sig.Symbol,
			"interval": sig.IntervalType,
			"ts":       sig.Timestamp,
		}).WithError(res.Error).Error("Failed to append signal")

		return false, res.Error
	}

	inserted := res.RowsAffected > 0

	logger.WithFields(map[string]interface{}{
		"repo":     "SignalRepository",
		"op":       "Append",
		"symbol":   sig.Symbol,
		"interval": sig.IntervalType,
		"ts":       sig.Timestamp,
		"inserted": inserted,
	}).Debug("Signal append finished")

	return inserted, nil
}

// Exists reports whether a signal was already logged for this candle.
func (r *SignalRepository) Exists(ctx context.Context, symbol, interval string, timestamp int64) (bool, error) {
	var n int64

	err := r.db.WithContext(ctx).
		Model(&model.Signal{}).
		Where("symbol = ? AND interval_type = ? AND timestamp = ?", symbol, interval, timestamp).
		Count(&n).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "SignalRepository",
			"op":     "Exists",
			"symbol": symbol,
		}).WithError(err).Error("Failed to check signal")

		return false, err
	}

	return n > 0, nil
}

func (r *SignalRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Signal{}).Count(&n).Error
	return n, err
}

// Recent returns the latest signals, newest first.
func (r *SignalRepository) Recent(ctx context.Context, limit int) ([]model.Signal, error) {
	if limit <= 0 {
		limit = 100
	}

	var signals []model.Signal

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&signals).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "SignalRepository",
			"op":    "Recent",
			"limit": limit,
		}).WithError(err).Error("Failed to fetch recent signals")

		return nil, err
	}

	return signals, nil
}
