package connectors

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const (
	CandleSourceGate    = "gate"
	CandleSourceBinance = "binance"
)

type Config struct {
	GateBaseURL   string `envconfig:"GATE_BASE_URL" default:"https://api.gateio.ws/api/v4"`
	GateSettle    string `envconfig:"GATE_SETTLE" default:"usdt"`
	GateAPIKey    string `envconfig:"GATE_API_KEY"`
	GateAPISecret string `envconfig:"GATE_API_SECRET"`

	// shared by every exchange call of this process
	ExchangeRPS   float64 `envconfig:"EXCHANGE_RPS" default:"10"`
	ExchangeBurst int     `envconfig:"EXCHANGE_BURST" default:"10"`

	CandleSource   string `envconfig:"CANDLE_SOURCE" default:"gate"` // gate | binance
	BinanceBaseURL string `envconfig:"BINANCE_BASE_URL"`

	DingTalkWebhookURL string `envconfig:"DINGTALK_WEBHOOK_URL"`
	DingTalkSecret     string `envconfig:"DINGTALK_SECRET"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
