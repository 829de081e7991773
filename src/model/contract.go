package model

// Contract is exchange-provided futures contract metadata.
// It is never persisted; the contract cache rebuilds it from the exchange.
type Contract struct {
	Name             string  `json:"name"`
	QuantoMultiplier float64 `json:"quanto_multiplier"`
	OrderPriceRound  string  `json:"order_price_round"` // price tick, e.g. "0.1"
}
