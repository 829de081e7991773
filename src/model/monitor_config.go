package model

import "time"

const (
	TradeDirectionBoth  = "both"
	TradeDirectionLong  = "long"
	TradeDirectionShort = "short"

	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// MonitorConfig is one monitored symbol/interval strategy.
// Configs are value objects: the full set is replaced on every submission.
type MonitorConfig struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Symbol       string `gorm:"size:64;not null;uniqueIndex:idx_monitor_config_key" json:"symbol"`
	IntervalType string `gorm:"size:8;not null;uniqueIndex:idx_monitor_config_key" json:"interval_type"`
	Frequency    int    `gorm:"not null" json:"frequency"` // seconds between ticks

	HistoryHours        float64 `json:"history_hours"`
	ShadowRatio         float64 `json:"shadow_ratio"`
	MainShadowBodyRatio float64 `json:"main_shadow_body_ratio"`
	VolumeMultiplier    float64 `json:"volume_multiplier"`

	OrderSize       float64 `json:"order_size"` // contract units
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	OrderType       string  `gorm:"size:10;not null;default:market" json:"order_type"`

	EnableAutoTrading bool   `json:"enable_auto_trading"`
	EnableDingtalk    bool   `json:"enable_dingtalk"`
	TradeDirection    string `gorm:"size:10;not null;default:both" json:"trade_direction"`
	IsActive          bool   `json:"is_active"`

	// Candle colour filters applied on top of the direction gate.
	LongRequiresBullish  bool `json:"long_requires_bullish"`
	ShortRequiresBearish bool `json:"short_requires_bearish"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MonitorConfig) TableName() string {
	return "monitor_configs"
}

// Key identifies the schedule loop that runs this config.
func (c MonitorConfig) Key() string {
	return c.Symbol + "_" + c.IntervalType
}
