package model

import "time"

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order is one order placed from a Signal.
// Rows are only written after the exchange acknowledged the order.
type Order struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	SignalID *uint `gorm:"index" json:"signal_id,omitempty"`

	Timestamp int64  `gorm:"index" json:"timestamp"` // signal candle open time, unix seconds
	Symbol    string `gorm:"size:64;not null;index" json:"symbol"`
	Side      string `gorm:"size:10;not null" json:"side"`
	OrderType string `gorm:"size:10" json:"order_type"`

	OrderSize       float64 `json:"order_size"`
	EntryPrice      float64 `json:"entry_price"`
	TakeProfitPrice float64 `json:"take_profit_price"`
	StopLossPrice   float64 `json:"stop_loss_price"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`

	// OrderValue is order_size * quanto_multiplier, kept for display only.
	OrderValue float64 `json:"order_value"`

	ExchangeOrderID   string `gorm:"size:64" json:"exchange_order_id"`
	TakeProfitOrderID string `gorm:"size:64" json:"take_profit_order_id,omitempty"`
	StopLossOrderID   string `gorm:"size:64" json:"stop_loss_order_id,omitempty"`
	ClientOrderText   string `gorm:"size:64" json:"client_order_text"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName allows you to control the exact table name for orders.
func (Order) TableName() string {
	return "orders"
}

// OrderAck is the exchange's acceptance of an entry order and its exit legs.
type OrderAck struct {
	OrderID      string `json:"order_id"`
	TakeProfitID string `json:"take_profit_id,omitempty"`
	StopLossID   string `json:"stop_loss_id,omitempty"`
	Text         string `json:"text,omitempty"` // client order text sent with the entry

	// Flattened is set when the entry was closed or cancelled because its
	// stop loss could not be placed.
	Flattened bool `json:"flattened,omitempty"`

	// BracketErr is set when the entry was accepted but an exit leg was not.
	BracketErr error `json:"-"`
}
