package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shadowmonitor/src/database"
	"shadowmonitor/src/model"
)

// OrderRepository is the append-only log of acknowledged orders.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new repository instance using the main read/write database.
func NewOrderRepository() *OrderRepository {
	logger.WithField("component", "OrderRepository").
		Info("Creating new OrderRepository with MainDB")

	return &OrderRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *OrderRepository) WithDB(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Append inserts a new order into the database.
// The given order will be updated with the generated ID and timestamps.
func (r *OrderRepository) Append(
	ctx context.Context,
	order *model.Order,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":   "OrderRepository",
		"op":     "Append",
		"symbol": order.Symbol,
		"side":   order.Side,
		"size":   order.OrderSize,
	}).Debug("Appending order")

	err := r.db.WithContext(ctx).Create(order).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":              "OrderRepository",
			"op":                "Append",
			"exchange_order_id": order.ExchangeOrderID,
		}).WithError(err).Error("Failed to append order")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "OrderRepository",
		"op":       "Append",
		"order_id": order.ID,
	}).Info("Order appended successfully")

	return nil
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&n).Error
	return n, err
}

// Recent returns the latest orders ordered from newest to oldest.
func (r *OrderRepository) Recent(
	ctx context.Context,
	limit int,
) ([]model.Order, error) {

	if limit <= 0 {
		limit = 100
	}

	var orders []model.Order

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "OrderRepository",
			"op":    "Recent",
			"limit": limit,
		}).WithError(err).Error("Failed to fetch latest orders")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "OrderRepository",
		"op":          "Recent",
		"limit":       limit,
		"rows_return": len(orders),
	}).Debug("Latest orders fetched")

	return orders, nil
}
