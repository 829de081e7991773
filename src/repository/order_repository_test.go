package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"shadowmonitor/src/database"
	"shadowmonitor/src/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestOrderRepositoryRecent(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &OrderRepository{db: mockDB}

	createdAt := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "symbol", "side", "order_size", "entry_price", "created_at"}).
		AddRow(2, "ETH_USDT", model.SideSell, 3.0, 2500.5, createdAt.Add(time.Hour)).
		AddRow(1, "BTC_USDT", model.SideBuy, 1.0, 43000.0, createdAt)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" ORDER BY id DESC LIMIT $1`)).
		WillReturnRows(rows)

	orders, err := repo.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ETH_USDT", orders[0].Symbol)
	assert.Equal(t, model.SideBuy, orders[1].Side)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryCount(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &OrderRepository{db: mockDB}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryAppendConcurrent(t *testing.T) {
	db := newSQLiteDB(t)
	repo := (&OrderRepository{}).WithDB(db)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Append(context.Background(), &model.Order{
				Timestamp: int64(1700000000 + i*60),
				Symbol:    "BTC_USDT",
				Side:      model.SideBuy,
				OrderSize: 1,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Config{DatabaseURL: "file::memory:", GormLogLevel: 1})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
