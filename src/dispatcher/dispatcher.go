// Package dispatcher turns shadow signals into bracketed exchange orders.
package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"shadowmonitor/src/apperrors"
	"shadowmonitor/src/model"
	"shadowmonitor/src/risk"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// ErrSkipped means the config does not allow an order for this signal.
var ErrSkipped = errors.New("order skipped")

// Placer submits an order and its exits to the exchange.
type Placer interface {
	PlaceOrder(ctx context.Context, order model.Order) (model.OrderAck, error)
}

type contractLookup interface {
	Lookup(symbol string) (model.Contract, bool)
}

type orderLog interface {
	Append(ctx context.Context, order *model.Order) error
}

type Dispatcher struct {
	placer    Placer
	contracts contractLookup
	orders    orderLog
	log       *logger.Entry
}

func New(placer Placer, contracts contractLookup, orders orderLog) *Dispatcher {
	return &Dispatcher{
		placer:    placer,
		contracts: contracts,
		orders:    orders,
		log:       logger.WithField("component", "dispatcher"),
	}
}

// SideFor maps a shadow to the reversal it predicts:
// a long lower shadow buys, a long upper shadow sells.
func SideFor(shadowType string) (string, error) {
	switch shadowType {
	case model.ShadowTypeLower:
		return model.SideBuy, nil
	case model.ShadowTypeUpper:
		return model.SideSell, nil
	}
	return "", fmt.Errorf("unknown shadow type %q", shadowType)
}

func directionAllows(direction, side string) bool {
	switch direction {
	case model.TradeDirectionLong:
		return side == model.SideBuy
	case model.TradeDirectionShort:
		return side == model.SideSell
	default:
		return true
	}
}

// BuildOrder derives the order for sig under cfg. It returns an error
// wrapping ErrSkipped when cfg filters the signal out.
func BuildOrder(sig model.Signal, cfg model.MonitorConfig, contract model.Contract) (model.Order, error) {
	side, err := SideFor(sig.ShadowType)
	if err != nil {
		return model.Order{}, err
	}

	if !directionAllows(cfg.TradeDirection, side) {
		return model.Order{}, fmt.Errorf("%w: %s not allowed by trade direction %s", ErrSkipped, side, cfg.TradeDirection)
	}
	if side == model.SideBuy && cfg.LongRequiresBullish && sig.CandleType != model.CandleTypeBullish {
		return model.Order{}, fmt.Errorf("%w: long requires a bullish candle", ErrSkipped)
	}
	if side == model.SideSell && cfg.ShortRequiresBearish && sig.CandleType != model.CandleTypeBearish {
		return model.Order{}, fmt.Errorf("%w: short requires a bearish candle", ErrSkipped)
	}

	bracket, err := risk.ComputeBracket(
		side,
		decimal.NewFromFloat(sig.ClosePrice),
		decimal.NewFromFloat(sig.MainShadowLength),
		decimal.NewFromFloat(cfg.RiskRewardRatio),
	)
	if err != nil {
		return model.Order{}, err
	}
	bracket = bracket.Round(contract.OrderPriceRound)
	if err := bracket.Check(side); err != nil {
		return model.Order{}, fmt.Errorf("bracket at tick %s: %w", contract.OrderPriceRound, err)
	}

	multiplier := contract.QuantoMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	orderType := cfg.OrderType
	if orderType == "" {
		orderType = model.OrderTypeMarket
	}

	order := model.Order{
		Timestamp:       sig.Timestamp,
		Symbol:          sig.Symbol,
		Side:            side,
		OrderType:       orderType,
		OrderSize:       cfg.OrderSize,
		EntryPrice:      bracket.Entry.InexactFloat64(),
		TakeProfitPrice: bracket.TakeProfit.InexactFloat64(),
		StopLossPrice:   bracket.StopLoss.InexactFloat64(),
		RiskRewardRatio: cfg.RiskRewardRatio,
		OrderValue:      risk.OrderValue(cfg.OrderSize, multiplier).InexactFloat64(),
	}
	if sig.ID != 0 {
		id := sig.ID
		order.SignalID = &id
	}
	return order, nil
}

// Dispatch places the order for sig and records it once the exchange has
// acknowledged it. A nil order with a nil error means the signal was
// filtered out by cfg.
func (d *Dispatcher) Dispatch(ctx context.Context, sig model.Signal, cfg model.MonitorConfig) (*model.Order, error) {
	log := d.log.WithFields(map[string]interface{}{
		"op":       "Dispatch",
		"symbol":   sig.Symbol,
		"interval": sig.IntervalType,
		"ts":       sig.Timestamp,
	})

	contract, ok := d.contracts.Lookup(sig.Symbol)
	if !ok {
		return nil, &apperrors.ValidationError{Index: -1, Reason: fmt.Sprintf("symbol %s not found in contract cache", sig.Symbol)}
	}

	order, err := BuildOrder(sig, cfg, contract)
	if errors.Is(err, ErrSkipped) {
		log.WithError(err).Info("signal not traded")
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.OrderError{Symbol: sig.Symbol, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ack, err := d.placer.PlaceOrder(ctx, order)
	if err != nil {
		log.WithError(err).Error("order placement failed")
		return nil, &apperrors.OrderError{Symbol: sig.Symbol, Err: err}
	}

	order.ExchangeOrderID = ack.OrderID
	order.TakeProfitOrderID = ack.TakeProfitID
	order.StopLossOrderID = ack.StopLossID
	order.ClientOrderText = ack.Text
	if ack.BracketErr != nil {
		log.WithError(ack.BracketErr).WithFields(map[string]interface{}{
			"order_id":  ack.OrderID,
			"flattened": ack.Flattened,
		}).Error("entry placed but exit leg failed")
	}

	// The exchange holds the order now; record it even if ctx is done.
	if err := d.orders.Append(context.WithoutCancel(ctx), &order); err != nil {
		log.WithError(err).WithField("order_id", ack.OrderID).Error("placed order could not be recorded")
		return &order, err
	}

	log.WithFields(map[string]interface{}{
		"side":     order.Side,
		"size":     order.OrderSize,
		"entry":    order.EntryPrice,
		"tp":       order.TakeProfitPrice,
		"sl":       order.StopLossPrice,
		"order_id": order.ExchangeOrderID,
	}).Info("order placed")

	if ack.BracketErr != nil {
		return &order, &apperrors.OrderError{Symbol: sig.Symbol, Err: ack.BracketErr}
	}
	return &order, nil
}
