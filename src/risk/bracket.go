// Package risk derives take-profit and stop-loss prices for an entry.
package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveDistance = errors.New("stop distance must be positive")
	ErrNonPositiveStop     = errors.New("stop loss price must be positive")
	ErrUnknownSide         = errors.New("unknown order side")
)

// Bracket is an entry with its exit levels.
type Bracket struct {
	Entry      decimal.Decimal
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
}

// ComputeBracket places the stop loss stopDistance against side and the
// take profit stopDistance*rr in favour of it.
//
// buy:  SL = entry - d, TP = entry + d*rr
// sell: SL = entry + d, TP = entry - d*rr
func ComputeBracket(side string, entry, stopDistance, rr decimal.Decimal) (Bracket, error) {
	if !stopDistance.IsPositive() {
		return Bracket{}, ErrNonPositiveDistance
	}

	tpDistance := stopDistance.Mul(rr)

	b := Bracket{Entry: entry}
	switch side {
	case "buy":
		b.StopLoss = entry.Sub(stopDistance)
		b.TakeProfit = entry.Add(tpDistance)
	case "sell":
		b.StopLoss = entry.Add(stopDistance)
		b.TakeProfit = entry.Sub(tpDistance)
	default:
		return Bracket{}, fmt.Errorf("%w: %q", ErrUnknownSide, side)
	}

	if err := b.Check(side); err != nil {
		return Bracket{}, err
	}

	return b, nil
}

// Check reports whether both exits are positive and strictly on their side
// of the entry. Rounding to a coarse tick can collapse an exit onto the entry.
func (b Bracket) Check(side string) error {
	if !b.StopLoss.IsPositive() || !b.TakeProfit.IsPositive() {
		return ErrNonPositiveStop
	}

	switch side {
	case "buy":
		if !b.StopLoss.LessThan(b.Entry) || !b.TakeProfit.GreaterThan(b.Entry) {
			return ErrNonPositiveDistance
		}
	case "sell":
		if !b.StopLoss.GreaterThan(b.Entry) || !b.TakeProfit.LessThan(b.Entry) {
			return ErrNonPositiveDistance
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSide, side)
	}
	return nil
}

// RoundToTick rounds price to the nearest multiple of tick.
// An empty or invalid tick leaves price unchanged.
func RoundToTick(price decimal.Decimal, tick string) decimal.Decimal {
	if tick == "" {
		return price
	}
	t, err := decimal.NewFromString(tick)
	if err != nil || !t.IsPositive() {
		return price
	}
	return price.Div(t).Round(0).Mul(t)
}

// Round applies RoundToTick to every level of b.
func (b Bracket) Round(tick string) Bracket {
	return Bracket{
		Entry:      RoundToTick(b.Entry, tick),
		TakeProfit: RoundToTick(b.TakeProfit, tick),
		StopLoss:   RoundToTick(b.StopLoss, tick),
	}
}

// OrderValue is size contracts expressed in the underlying asset.
func OrderValue(size, multiplier float64) decimal.Decimal {
	return decimal.NewFromFloat(size).Mul(decimal.NewFromFloat(multiplier))
}
