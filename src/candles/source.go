package candles

import (
	"context"
	"sort"
	"time"

	"shadowmonitor/src/apperrors"
	"shadowmonitor/src/model"
)

// Fetcher is the exchange capability behind a Source.
// Implementations may return candles in any order and may include the in-progress one.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol string, interval Interval, limit int) ([]model.Candle, error)
}

// extra candles requested so the evaluated candle and the in-progress one fit
const limitPadding = 2

// Source returns completed candles in ascending open-time order.
type Source struct {
	fetcher Fetcher
	now     func() time.Time
}

func NewSource(fetcher Fetcher) *Source {
	return &Source{fetcher: fetcher, now: time.Now}
}

// Fetch returns enough completed candles to evaluate the latest one against
// a historyHours window. Transport failures are returned as FetchError.
func (s *Source) Fetch(ctx context.Context, symbol string, interval Interval, historyHours float64) ([]model.Candle, error) {
	limit := interval.WindowSize(historyHours) + limitPadding

	raw, err := s.fetcher.FetchCandles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, &apperrors.FetchError{Op: "candles " + symbol + " " + string(interval), Err: err}
	}

	return Completed(raw, interval, s.now()), nil
}

// Completed sorts candles ascending, drops duplicate open times and
// removes candles that have not closed at now.
func Completed(raw []model.Candle, interval Interval, now time.Time) []model.Candle {
	out := make([]model.Candle, 0, len(raw))
	out = append(out, raw...)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})

	dedup := out[:0]
	for i, c := range out {
		if i > 0 && c.OpenTime.Equal(dedup[len(dedup)-1].OpenTime) {
			// keep the latest sample of that bar
			dedup[len(dedup)-1] = c
			continue
		}
		dedup = append(dedup, c)
	}

	width := interval.Duration()
	for len(dedup) > 0 && dedup[len(dedup)-1].OpenTime.Add(width).After(now) {
		dedup = dedup[:len(dedup)-1]
	}

	return dedup
}
