// Package contracts caches exchange contract metadata in memory.
package contracts

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"shadowmonitor/src/apperrors"
	"shadowmonitor/src/model"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Fetcher is the exchange capability that lists contracts.
type Fetcher interface {
	FetchContracts(ctx context.Context) ([]model.Contract, error)
}

var errEmptyContractList = errors.New("exchange returned no contracts")

// Cache maps symbol to contract. Readers never block; Refresh swaps the
// whole snapshot at once.
type Cache struct {
	fetcher  Fetcher
	timeout  time.Duration
	snapshot atomic.Pointer[map[string]model.Contract]

	// one refresh at a time
	refreshMu sync.Mutex
	log       *logrus.Entry
}

func NewCache(fetcher Fetcher, timeout time.Duration) *Cache {
	if timeout <= 0 {
		timeout = time.Minute
	}
	c := &Cache{
		fetcher: fetcher,
		timeout: timeout,
		log:     logrus.WithField("component", "contract_cache"),
	}
	empty := map[string]model.Contract{}
	c.snapshot.Store(&empty)
	return c
}

// Refresh replaces the cache with the exchange's current list, bounded by the
// cache timeout. On failure the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context) (int, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.fetcher.FetchContracts(ctx)
	if err == nil && len(list) == 0 {
		err = errEmptyContractList
	}
	if err != nil {
		c.log.WithError(err).Warn("contract refresh failed, keeping previous cache")
		return 0, &apperrors.FetchError{Op: "contracts", Err: err}
	}

	next := make(map[string]model.Contract, len(list))
	for _, ct := range list {
		if ct.Name == "" {
			continue
		}
		next[ct.Name] = ct
	}
	c.snapshot.Store(&next)

	c.log.WithField("count", len(next)).Info("contract cache refreshed")
	return len(next), nil
}

func (c *Cache) Lookup(symbol string) (model.Contract, bool) {
	ct, ok := (*c.snapshot.Load())[symbol]
	return ct, ok
}

// Resolved reports whether symbol is known. Trading decisions gate on this,
// never on Multiplier.
func (c *Cache) Resolved(symbol string) bool {
	_, ok := c.Lookup(symbol)
	return ok
}

// Multiplier returns the quanto multiplier of symbol, or 1.0 when unknown.
// The fallback is for display only.
func (c *Cache) Multiplier(symbol string) float64 {
	ct, ok := c.Lookup(symbol)
	if !ok || ct.QuantoMultiplier == 0 {
		return 1.0
	}
	return ct.QuantoMultiplier
}

func (c *Cache) Len() int {
	return len(*c.snapshot.Load())
}

// List returns the cached contracts sorted by name.
func (c *Cache) List() []model.Contract {
	snap := *c.snapshot.Load()
	out := make([]model.Contract, 0, len(snap))
	for _, ct := range snap {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Schedule registers a background refresh on the cron expression and starts the scheduler.
// The caller stops it with the returned cron's Stop.
func (c *Cache) Schedule(expr string) (*cron.Cron, error) {
	sched := cron.New()
	_, err := sched.AddFunc(expr, func() {
		if _, err := c.Refresh(context.Background()); err != nil {
			c.log.WithError(err).Error("scheduled contract refresh failed")
		}
	})
	if err != nil {
		return nil, err
	}
	sched.Start()
	c.log.WithField("schedule", expr).Info("contract refresh scheduled")
	return sched, nil
}
