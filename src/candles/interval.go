package candles

import (
	"fmt"
	"time"
)

// Interval is a candle width as the exchange names it.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

var intervalMinutes = map[Interval]int{
	Interval1m:  1,
	Interval5m:  5,
	Interval15m: 15,
	Interval30m: 30,
	Interval1h:  60,
	Interval4h:  240,
	Interval1d:  1440,
}

// ParseInterval validates s against the supported intervals.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if _, ok := intervalMinutes[iv]; !ok {
		return "", fmt.Errorf("unsupported interval %q (allowed: 1m,5m,15m,30m,1h,4h,1d)", s)
	}
	return iv, nil
}

func (i Interval) Minutes() int { return intervalMinutes[i] }

func (i Interval) Duration() time.Duration {
	return time.Duration(intervalMinutes[i]) * time.Minute
}

// WindowSize is how many completed candles cover historyHours, at least one.
func (i Interval) WindowSize(historyHours float64) int {
	m := i.Minutes()
	if m == 0 {
		return 0
	}
	n := int(historyHours * 60 / float64(m))
	if n < 1 {
		n = 1
	}
	return n
}
