package model

import "time"

const (
	ShadowTypeUpper = "upper"
	ShadowTypeLower = "lower"

	CandleTypeBullish = "bullish"
	CandleTypeBearish = "bearish"
)

// Signal is one detected long-shadow occurrence.
// (symbol, interval_type, timestamp) is unique so a closed candle is emitted once.
type Signal struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Timestamp    int64  `gorm:"not null;uniqueIndex:idx_signal_key,priority:3" json:"timestamp"` // candle open time, unix seconds
	Symbol       string `gorm:"size:64;not null;uniqueIndex:idx_signal_key,priority:1" json:"symbol"`
	IntervalType string `gorm:"size:8;not null;uniqueIndex:idx_signal_key,priority:2" json:"interval_type"`

	ShadowType string `gorm:"size:10" json:"shadow_type"`
	CandleType string `gorm:"size:10" json:"candle_type"`

	OpenPrice  float64 `json:"open_price"`
	HighPrice  float64 `json:"high_price"`
	LowPrice   float64 `json:"low_price"`
	ClosePrice float64 `json:"close_price"`
	Volume     float64 `json:"volume"`

	ShadowRatio      float64 `json:"shadow_ratio"`
	MainShadowLength float64 `json:"main_shadow_length"`
	BodyLength       float64 `json:"body_length"`
	AvgVolume        float64 `json:"avg_volume"`
	VolumeRatio      float64 `json:"volume_ratio"`

	CreatedAt time.Time `json:"created_at"`
}

func (Signal) TableName() string {
	return "signals"
}
