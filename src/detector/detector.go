// Package detector finds long-shadow reversal candles. Everything here is pure.
package detector

import (
	"math"

	"shadowmonitor/src/candles"
	"shadowmonitor/src/model"
)

// Thresholds are the per-config qualification limits.
type Thresholds struct {
	ShadowRatio         float64 // main shadow / full range
	MainShadowBodyRatio float64 // main shadow / body
	VolumeMultiplier    float64 // candle volume / window average
}

func ThresholdsFrom(cfg model.MonitorConfig) Thresholds {
	return Thresholds{
		ShadowRatio:         cfg.ShadowRatio,
		MainShadowBodyRatio: cfg.MainShadowBodyRatio,
		VolumeMultiplier:    cfg.VolumeMultiplier,
	}
}

// Measure holds the shadow geometry of one candle.
type Measure struct {
	Body             float64
	UpperShadow      float64
	LowerShadow      float64
	MainShadowLength float64
	ShadowType       string
	Range            float64
}

// MeasureCandle computes the shadow geometry of c. Equal shadows classify as lower.
func MeasureCandle(c model.Candle) Measure {
	top := math.Max(c.Open, c.Close)
	bottom := math.Min(c.Open, c.Close)

	m := Measure{
		Body:        math.Abs(c.Close - c.Open),
		UpperShadow: c.High - top,
		LowerShadow: bottom - c.Low,
		Range:       c.High - c.Low,
	}

	if m.UpperShadow > m.LowerShadow {
		m.MainShadowLength = m.UpperShadow
		m.ShadowType = model.ShadowTypeUpper
	} else {
		m.MainShadowLength = m.LowerShadow
		m.ShadowType = model.ShadowTypeLower
	}

	return m
}

// AvgVolume is the arithmetic mean volume of window.
func AvgVolume(window []model.Candle) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, c := range window {
		sum += c.Volume
	}
	return sum / float64(len(window))
}

// Detect evaluates c against the preceding window (which must not contain c).
// It returns nil unless every threshold holds. The returned signal carries no
// symbol or interval; the caller fills those in.
func Detect(c model.Candle, window []model.Candle, th Thresholds) *model.Signal {
	if len(window) == 0 {
		return nil
	}

	m := MeasureCandle(c)
	if m.Body == 0 || m.Range == 0 {
		return nil
	}

	ratio := m.MainShadowLength / m.Range
	if ratio < th.ShadowRatio {
		return nil
	}

	if m.MainShadowLength/m.Body < th.MainShadowBodyRatio {
		return nil
	}

	avg := AvgVolume(window)
	if c.Volume < avg*th.VolumeMultiplier {
		return nil
	}

	candleType := model.CandleTypeBearish
	if c.IsBullish() {
		candleType = model.CandleTypeBullish
	}

	var volumeRatio float64
	if avg > 0 {
		volumeRatio = c.Volume / avg
	}

	return &model.Signal{
		Timestamp:        c.OpenTime.Unix(),
		ShadowType:       m.ShadowType,
		CandleType:       candleType,
		OpenPrice:        c.Open,
		HighPrice:        c.High,
		LowPrice:         c.Low,
		ClosePrice:       c.Close,
		Volume:           c.Volume,
		ShadowRatio:      ratio,
		MainShadowLength: m.MainShadowLength,
		BodyLength:       m.Body,
		AvgVolume:        avg,
		VolumeRatio:      volumeRatio,
	}
}

// Evaluate runs Detect on the latest completed candle of series (ascending)
// against the cfg.HistoryHours window before it. Too little history yields nil.
func Evaluate(cfg model.MonitorConfig, series []model.Candle) *model.Signal {
	interval, err := candles.ParseInterval(cfg.IntervalType)
	if err != nil {
		return nil
	}

	size := interval.WindowSize(cfg.HistoryHours)
	if len(series) < size+1 {
		return nil
	}

	last := len(series) - 1
	sig := Detect(series[last], series[last-size:last], ThresholdsFrom(cfg))
	if sig == nil {
		return nil
	}

	sig.Symbol = cfg.Symbol
	sig.IntervalType = cfg.IntervalType
	return sig
}
