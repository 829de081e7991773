package scan

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shadowmonitor/src/apperrors"
	"shadowmonitor/src/candles"
	"shadowmonitor/src/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfigs struct {
	list []model.MonitorConfig
	err  error
}

func (s stubConfigs) List(context.Context) ([]model.MonitorConfig, error) { return s.list, s.err }

type stubSource map[string][]model.Candle

func (s stubSource) Fetch(_ context.Context, symbol string, _ candles.Interval, _ float64) ([]model.Candle, error) {
	series, ok := s[symbol]
	if !ok {
		return nil, &apperrors.FetchError{Op: "candles " + symbol, Err: errors.New("unknown contract")}
	}
	return series, nil
}

func quietThenShadow() []model.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := []model.Candle{}
	for i := 0; i < 3; i++ {
		out = append(out, model.Candle{OpenTime: base.Add(time.Duration(i) * time.Hour), Open: 100, Close: 101, High: 102, Low: 99, Volume: 100})
	}
	return append(out, model.Candle{OpenTime: base.Add(3 * time.Hour), Open: 101, Close: 100, High: 111, Low: 99.5, Volume: 400})
}

func scanConfig(symbol string, active bool) model.MonitorConfig {
	return model.MonitorConfig{
		Symbol: symbol, IntervalType: "1h", HistoryHours: 3, IsActive: active,
		ShadowRatio: 0.6, MainShadowBodyRatio: 2, VolumeMultiplier: 2,
	}
}

func TestScan_run(t *testing.T) {
	var out bytes.Buffer
	s := &Scan{
		Log:    logrus.NewEntry(logrus.New()),
		Config: &Config{Concurrency: 2},
		Out:    &out,
		configs: stubConfigs{list: []model.MonitorConfig{
			scanConfig("BTC_USDT", true),
			scanConfig("ETH_USDT", true),
			scanConfig("SOL_USDT", false),
			scanConfig("XRP_USDT", true),
		}},
		source: stubSource{
			"BTC_USDT": quietThenShadow(),
			"ETH_USDT": quietThenShadow()[:3],
			"SOL_USDT": quietThenShadow(),
		},
	}

	require.NoError(t, s.run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, out.String())
	assert.Contains(t, lines[0], "BTC_USDT_1h")
	assert.Contains(t, lines[0], "SIGNAL upper shadow, bearish candle")
	assert.Contains(t, lines[1], "ETH_USDT_1h")
	assert.Contains(t, lines[1], "no signal (3 candles)")
}

func TestScan_runSymbolFilter(t *testing.T) {
	var out bytes.Buffer
	s := &Scan{
		Log:     logrus.NewEntry(logrus.New()),
		Config:  &Config{Concurrency: 1},
		Out:     &out,
		Symbol:  "btc_usdt",
		configs: stubConfigs{list: []model.MonitorConfig{scanConfig("BTC_USDT", true), scanConfig("ETH_USDT", true)}},
		source:  stubSource{"BTC_USDT": quietThenShadow(), "ETH_USDT": quietThenShadow()},
	}

	require.NoError(t, s.run(context.Background()))
	assert.NotContains(t, out.String(), "ETH_USDT")
}

func TestScan_runListError(t *testing.T) {
	s := &Scan{
		Log:     logrus.NewEntry(logrus.New()),
		Config:  &Config{},
		Out:     &bytes.Buffer{},
		configs: stubConfigs{err: errors.New("no such table")},
	}
	assert.Error(t, s.run(context.Background()))
}
