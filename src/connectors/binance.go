package connectors

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shadowmonitor/src/candles"
	"shadowmonitor/src/model"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const binanceMaxCandles = 1000

type klineAPI interface {
	GetKlineRecords(currency goex.CurrencyPair, period goex.KlinePeriod, size int, optional ...goex.OptionalParameter) ([]goex.Kline, error)
}

// BinanceCandles reads spot klines from Binance as an alternative candle
// source. Symbols keep the Gate form (BTC_USDT).
type BinanceCandles struct {
	exchange klineAPI
	limiter  *rate.Limiter
}

func NewBinanceCandles(cfg Config, limiter *rate.Limiter) *BinanceCandles {
	endpoint := cfg.BinanceBaseURL
	if endpoint == "" {
		endpoint = binance.GLOBAL_API_BASE_URL
	}
	if limiter == nil {
		limiter = NewLimiter(cfg)
	}

	apiConfig := &goex.APIConfig{
		HttpClient: &http.Client{Timeout: 15 * time.Second},
		Endpoint:   endpoint,
	}
	return &BinanceCandles{
		exchange: binance.NewWithConfig(apiConfig),
		limiter:  limiter,
	}
}

func binancePeriod(interval candles.Interval) (goex.KlinePeriod, error) {
	switch interval {
	case candles.Interval1m:
		return goex.KLINE_PERIOD_1MIN, nil
	case candles.Interval5m:
		return goex.KLINE_PERIOD_5MIN, nil
	case candles.Interval15m:
		return goex.KLINE_PERIOD_15MIN, nil
	case candles.Interval30m:
		return goex.KLINE_PERIOD_30MIN, nil
	case candles.Interval1h:
		return goex.KLINE_PERIOD_1H, nil
	case candles.Interval4h:
		return goex.KLINE_PERIOD_4H, nil
	case candles.Interval1d:
		return goex.KLINE_PERIOD_1DAY, nil
	}
	return 0, fmt.Errorf("interval %q not supported by binance", interval)
}

func binancePair(symbol string) (goex.CurrencyPair, error) {
	base, quote, ok := strings.Cut(strings.ToUpper(symbol), "_")
	if !ok || base == "" || quote == "" {
		return goex.CurrencyPair{}, fmt.Errorf("symbol %q is not BASE_QUOTE", symbol)
	}
	return goex.NewCurrencyPair(goex.Currency{Symbol: base}, goex.Currency{Symbol: quote}), nil
}

type klineResult struct {
	klines []goex.Kline
	err    error
}

// FetchCandles returns the latest limit klines. goex has no context support,
// so the call runs in its own goroutine and ctx only bounds the wait.
func (b *BinanceCandles) FetchCandles(ctx context.Context, symbol string, interval candles.Interval, limit int) ([]model.Candle, error) {
	period, err := binancePeriod(interval)
	if err != nil {
		return nil, err
	}
	pair, err := binancePair(symbol)
	if err != nil {
		return nil, err
	}
	if limit > binanceMaxCandles {
		limit = binanceMaxCandles
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	done := make(chan klineResult, 1)
	go func() {
		klines, err := b.exchange.GetKlineRecords(pair, period, limit)
		done <- klineResult{klines: klines, err: err}
	}()

	var res klineResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "binance",
			"symbol":    symbol,
			"interval":  interval,
		}).WithError(res.err).Warn("GetKlineRecords failed")
		return nil, res.err
	}

	out := make([]model.Candle, 0, len(res.klines))
	for _, k := range res.klines {
		out = append(out, model.Candle{
			OpenTime: time.Unix(k.Timestamp, 0).UTC(),
			Open:     k.Open,
			High:     k.High,
			Low:      k.Low,
			Close:    k.Close,
			Volume:   k.Vol,
		})
	}
	return out, nil
}
