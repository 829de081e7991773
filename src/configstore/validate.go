package configstore

import (
	"fmt"
	"strings"

	"shadowmonitor/src/candles"
	"shadowmonitor/src/model"
)

const minFrequencySeconds = 3

// applyDefaults fills optional fields before validation.
func applyDefaults(cfg model.MonitorConfig) model.MonitorConfig {
	cfg.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Symbol))
	cfg.IntervalType = strings.TrimSpace(cfg.IntervalType)
	if cfg.TradeDirection == "" {
		cfg.TradeDirection = model.TradeDirectionBoth
	}
	if cfg.OrderType == "" {
		cfg.OrderType = model.OrderTypeMarket
	}
	return cfg
}

// validateShape checks ranges and enums. It returns "" when cfg is valid.
// Positive checks are written as !(x > 0) so NaN is rejected too.
func validateShape(cfg model.MonitorConfig) string {
	switch {
	case cfg.Symbol == "":
		return "symbol is required"
	case cfg.Frequency < minFrequencySeconds:
		return fmt.Sprintf("frequency must be >= %d seconds", minFrequencySeconds)
	case !(cfg.HistoryHours > 0):
		return "history_hours must be > 0"
	case !(cfg.ShadowRatio > 0):
		return "shadow_ratio must be > 0"
	case !(cfg.MainShadowBodyRatio > 0):
		return "main_shadow_body_ratio must be > 0"
	case !(cfg.VolumeMultiplier > 0):
		return "volume_multiplier must be > 0"
	case !(cfg.OrderSize > 0):
		return "order_size must be > 0"
	case !(cfg.RiskRewardRatio > 0):
		return "risk_reward_ratio must be > 0"
	}

	if _, err := candles.ParseInterval(cfg.IntervalType); err != nil {
		return err.Error()
	}

	switch cfg.TradeDirection {
	case model.TradeDirectionBoth, model.TradeDirectionLong, model.TradeDirectionShort:
	default:
		return fmt.Sprintf("trade_direction %q must be one of both,long,short", cfg.TradeDirection)
	}

	switch cfg.OrderType {
	case model.OrderTypeMarket, model.OrderTypeLimit:
	default:
		return fmt.Sprintf("order_type %q must be market or limit", cfg.OrderType)
	}

	return ""
}
