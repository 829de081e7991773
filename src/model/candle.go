package model

import "time"

// Candle is one OHLCV bar. OpenTime is UTC.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

func (c Candle) IsBullish() bool { return c.Close > c.Open }
