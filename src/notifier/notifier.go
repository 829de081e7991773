// Package notifier formats signal and order alerts for the DingTalk robot.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"shadowmonitor/src/apperrors"
	"shadowmonitor/src/model"

	logger "github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

var ErrNotConfigured = errors.New("dingtalk webhook not configured")

// Sender delivers a message to a chat webhook.
type Sender interface {
	SendMarkdown(ctx context.Context, title, text string) error
	SendText(ctx context.Context, content string) error
}

type Notifier struct {
	sender  Sender
	timeout time.Duration
	log     *logger.Entry
}

// New returns a notifier; a nil sender turns every alert into a no-op.
func New(sender Sender) *Notifier {
	return &Notifier{
		sender:  sender,
		timeout: defaultTimeout,
		log:     logger.WithField("component", "notifier"),
	}
}

// NotifySignal posts a signal alert when cfg has DingTalk enabled.
// Delivery failures are logged only.
func (n *Notifier) NotifySignal(ctx context.Context, cfg model.MonitorConfig, sig model.Signal) {
	if !cfg.EnableDingtalk || n.sender == nil {
		return
	}
	title := fmt.Sprintf("Shadow signal - %s", sig.Symbol)
	n.send(ctx, "NotifySignal", title, FormatSignal(sig))
}

// NotifyOrder posts an order alert when cfg has DingTalk enabled.
func (n *Notifier) NotifyOrder(ctx context.Context, cfg model.MonitorConfig, order model.Order) {
	if !cfg.EnableDingtalk || n.sender == nil {
		return
	}
	title := fmt.Sprintf("Order placed - %s %s", order.Symbol, strings.ToUpper(order.Side))
	n.send(ctx, "NotifyOrder", title, FormatOrder(order))
}

func (n *Notifier) send(ctx context.Context, op, title, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := n.sender.SendMarkdown(ctx, title, text); err != nil {
		n.log.WithField("op", op).WithError(&apperrors.NotifyError{Err: err}).Warn("dingtalk delivery failed")
	}
}

// Test sends a plain text probe and reports the outcome.
func (n *Notifier) Test(ctx context.Context) error {
	if n.sender == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.sender.SendText(ctx, "Shadow monitor test message. If you can read this, the DingTalk robot is configured."); err != nil {
		return &apperrors.NotifyError{Err: err}
	}
	return nil
}

func formatTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatSignal renders sig as DingTalk markdown.
func FormatSignal(sig model.Signal) string {
	shadowMultiple := 0.0
	if sig.BodyLength > 0 {
		shadowMultiple = round2(sig.MainShadowLength / sig.BodyLength)
	}
	volumeMultiple := 1.0
	if sig.AvgVolume > 0 {
		volumeMultiple = round2(sig.Volume / sig.AvgVolume)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Shadow signal - %s\n", sig.Symbol)
	b.WriteString("---\n")
	fmt.Fprintf(&b, "- **Symbol**: %s\n", sig.Symbol)
	fmt.Fprintf(&b, "- **Time**: %s\n", formatTime(sig.Timestamp))
	fmt.Fprintf(&b, "- **Interval**: %s\n", sig.IntervalType)
	fmt.Fprintf(&b, "- **Price**: %.4f\n", sig.ClosePrice)
	b.WriteString("---\n")
	b.WriteString("## Details\n")
	fmt.Fprintf(&b, "- **Candle**: %s, long %s shadow\n", sig.CandleType, sig.ShadowType)
	fmt.Fprintf(&b, "- **Shadow/body**: %.2fx\n", shadowMultiple)
	fmt.Fprintf(&b, "- **Shadow/range**: %.1f%%\n", sig.ShadowRatio*100)
	fmt.Fprintf(&b, "- **Volume**: %.2fx average\n", volumeMultiple)
	b.WriteString("---\n")
	fmt.Fprintf(&b, "- **Open**: %.4f\n", sig.OpenPrice)
	fmt.Fprintf(&b, "- **High**: %.4f\n", sig.HighPrice)
	fmt.Fprintf(&b, "- **Low**: %.4f\n", sig.LowPrice)
	fmt.Fprintf(&b, "- **Close**: %.4f\n", sig.ClosePrice)
	fmt.Fprintf(&b, "- **Volume**: %.0f\n", sig.Volume)
	b.WriteString("---\n")
	b.WriteString("> Automated signal, not investment advice.\n")
	return b.String()
}

// FormatOrder renders order as DingTalk markdown.
func FormatOrder(order model.Order) string {
	direction := "LONG"
	if order.Side == model.SideSell {
		direction = "SHORT"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Order placed - %s %s\n", order.Symbol, direction)
	b.WriteString("---\n")
	fmt.Fprintf(&b, "- **Symbol**: %s\n", order.Symbol)
	fmt.Fprintf(&b, "- **Time**: %s\n", formatTime(order.Timestamp))
	fmt.Fprintf(&b, "- **Direction**: %s (%s)\n", direction, order.OrderType)
	fmt.Fprintf(&b, "- **Size**: %g contracts (value %g)\n", order.OrderSize, order.OrderValue)
	fmt.Fprintf(&b, "- **Entry**: %.4f\n", order.EntryPrice)
	fmt.Fprintf(&b, "- **Stop loss**: %.4f\n", order.StopLossPrice)
	fmt.Fprintf(&b, "- **Take profit**: %.4f\n", order.TakeProfitPrice)
	fmt.Fprintf(&b, "- **Risk/reward**: 1:%.1f\n", order.RiskRewardRatio)
	if order.ExchangeOrderID != "" {
		fmt.Fprintf(&b, "- **Exchange order**: %s\n", order.ExchangeOrderID)
	}
	return b.String()
}
