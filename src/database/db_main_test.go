package database

import (
	"testing"

	"shadowmonitor/src/database/migrations"
	"shadowmonitor/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPostgres(t *testing.T) {
	assert.True(t, isPostgres("postgres://u:p@localhost/db?sslmode=disable"))
	assert.True(t, isPostgres("postgresql://localhost/db"))
	assert.False(t, isPostgres("shadowmonitor.db"))
	assert.False(t, isPostgres("file::memory:"))
}

func TestOpenSqliteAndMigrate(t *testing.T) {
	db, err := Open(Config{DatabaseURL: "file::memory:", GormLogLevel: 1})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	// second run must be a no-op
	require.NoError(t, Migrate(db))

	for _, table := range []interface{}{&model.MonitorConfig{}, &model.Signal{}, &model.Order{}, &model.Exception{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	var applied int64
	require.NoError(t, db.Model(&migrations.DataMigration{}).Count(&applied).Error)
	assert.Equal(t, int64(1), applied)
}

func TestBackfillMonitorConfigDefaults(t *testing.T) {
	db, err := Open(Config{DatabaseURL: "file::memory:", GormLogLevel: 1})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.MonitorConfig{}))

	require.NoError(t, db.Exec(
		"INSERT INTO monitor_configs (symbol, interval_type, frequency, trade_direction, order_type) VALUES (?, ?, ?, ?, ?)",
		"BTC_USDT", "1h", 60, "", "",
	).Error)

	require.NoError(t, migrations.Run(db))

	var cfg model.MonitorConfig
	require.NoError(t, db.First(&cfg).Error)
	assert.Equal(t, model.TradeDirectionBoth, cfg.TradeDirection)
	assert.Equal(t, model.OrderTypeMarket, cfg.OrderType)
}
