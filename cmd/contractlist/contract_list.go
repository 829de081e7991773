package contractlist

import (
	"context"
	"fmt"
	"io"
	"strings"

	"shadowmonitor/src/connectors"
	"shadowmonitor/src/contracts"
	"shadowmonitor/src/model"

	"github.com/sirupsen/logrus"
)

// ContractList prints the exchange's tradable contracts.
type ContractList struct {
	Log    *logrus.Entry
	Out    io.Writer
	Filter string // optional symbol prefix, e.g. BTC
}

type refresher interface {
	Refresh(ctx context.Context) (int, error)
	List() []model.Contract
}

func (c *ContractList) Start(ctx context.Context) error {
	conn := connectors.GetConfig()
	cfg := contracts.GetConfig()

	cache := contracts.NewCache(connectors.NewGateClient(conn, nil), cfg.RefreshTimeout)
	return c.run(ctx, cache)
}

func (c *ContractList) run(ctx context.Context, cache refresher) error {
	n, err := cache.Refresh(ctx)
	if err != nil {
		c.Log.WithError(err).Error("contract refresh failed")
		return err
	}
	c.Log.WithField("count", n).Info("contracts loaded")

	prefix := strings.ToUpper(c.Filter)
	for _, ct := range cache.List() {
		if prefix != "" && !strings.HasPrefix(ct.Name, prefix) {
			continue
		}
		if _, err := fmt.Fprintf(c.Out, "%-20s multiplier=%-10g tick=%s\n", ct.Name, ct.QuantoMultiplier, ct.OrderPriceRound); err != nil {
			return err
		}
	}
	return nil
}
