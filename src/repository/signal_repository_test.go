package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"shadowmonitor/src/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalRepositoryExists(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &SignalRepository{db: mockDB}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "signals" WHERE symbol = $1 AND interval_type = $2 AND timestamp = $3`)).
		WithArgs("BTC_USDT", "1h", int64(1700000000)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.Exists(context.Background(), "BTC_USDT", "1h", 1700000000)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignalRepositoryRecent(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &SignalRepository{db: mockDB}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "signals" ORDER BY id DESC LIMIT $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "symbol", "interval_type", "timestamp", "shadow_type"}).
			AddRow(9, "SOL_USDT", "5m", 1700000300, model.ShadowTypeLower))

	signals, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, model.ShadowTypeLower, signals[0].ShadowType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignalRepositoryAppendDedup(t *testing.T) {
	db := newSQLiteDB(t)
	repo := (&SignalRepository{}).WithDB(db)
	ctx := context.Background()

	sig := func() *model.Signal {
		return &model.Signal{Symbol: "BTC_USDT", IntervalType: "1h", Timestamp: 1700000000, ShadowType: model.ShadowTypeUpper}
	}

	inserted, err := repo.Append(ctx, sig())
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Append(ctx, sig())
	require.NoError(t, err)
	assert.False(t, inserted, "same candle must not be logged twice")

	other := sig()
	other.IntervalType = "4h"
	inserted, err = repo.Append(ctx, other)
	require.NoError(t, err)
	assert.True(t, inserted, "a different interval is a different key")

	exists, err := repo.Exists(ctx, "BTC_USDT", "1h", 1700000000)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSignalRepositoryConcurrentAppendsNoLostWrites(t *testing.T) {
	db := newSQLiteDB(t)
	repo := (&SignalRepository{}).WithDB(db)

	symbols := []string{"BTC_USDT", "ETH_USDT", "SOL_USDT", "DOGE_USDT"}

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		for i := 0; i < 10; i++ {
			// every candle is submitted twice
			for dup := 0; dup < 2; dup++ {
				wg.Add(1)
				go func(symbol string, i int) {
					defer wg.Done()
					_, err := repo.Append(context.Background(), &model.Signal{
						Symbol:       symbol,
						IntervalType: "1m",
						Timestamp:    int64(1700000000 + i*60),
					})
					assert.NoError(t, err)
				}(symbol, i)
			}
		}
	}
	wg.Wait()

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(len(symbols)*10), n)
}
