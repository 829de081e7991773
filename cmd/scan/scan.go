package scan

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"shadowmonitor/src/candles"
	"shadowmonitor/src/connectors"
	"shadowmonitor/src/detector"
	"shadowmonitor/src/model"
	"shadowmonitor/src/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Scan evaluates the latest completed candle of every active config once and
// prints what would be signalled. Nothing is stored and no order is placed.
type Scan struct {
	Log    *logrus.Entry
	DB     *gorm.DB
	Config *Config
	Out    io.Writer
	Symbol string // optional, restrict to one symbol

	configs configLister
	source  candleSource
}

type configLister interface {
	List(ctx context.Context) ([]model.MonitorConfig, error)
}

type candleSource interface {
	Fetch(ctx context.Context, symbol string, interval candles.Interval, historyHours float64) ([]model.Candle, error)
}

func (s *Scan) Start(ctx context.Context) error {
	if s.Config == nil {
		s.Config = GetConfig()
	}
	s.configs = repository.NewMonitorConfigRepository().WithDB(s.DB)

	conn := connectors.GetConfig()
	limiter := connectors.NewLimiter(conn)
	var fetcher candles.Fetcher = connectors.NewGateClient(conn, limiter)
	if conn.CandleSource == connectors.CandleSourceBinance {
		fetcher = connectors.NewBinanceCandles(conn, limiter)
	}
	s.source = candles.NewSource(fetcher)

	return s.run(ctx)
}

type scanResult struct {
	cfg model.MonitorConfig
	sig *model.Signal
	n   int
}

func (s *Scan) run(ctx context.Context) error {
	all, err := s.configs.List(ctx)
	if err != nil {
		s.Log.WithError(err).Error("run, List, ")
		return err
	}

	symbol := strings.ToUpper(s.Symbol)
	var targets []model.MonitorConfig
	for _, cfg := range all {
		if !cfg.IsActive || (symbol != "" && cfg.Symbol != symbol) {
			continue
		}
		targets = append(targets, cfg)
	}
	s.Log.WithField("configs", len(targets)).Info("scanning")

	var (
		mu      sync.Mutex
		results []scanResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Config.Concurrency))
	for _, cfg := range targets {
		cfg := cfg
		g.Go(func() error {
			interval, err := candles.ParseInterval(cfg.IntervalType)
			if err != nil {
				return err
			}
			series, err := s.source.Fetch(gctx, cfg.Symbol, interval, cfg.HistoryHours)
			if err != nil {
				// one bad symbol should not hide the others
				s.Log.WithError(err).WithField("key", cfg.Key()).Warn("fetch failed")
				return nil
			}
			mu.Lock()
			results = append(results, scanResult{cfg: cfg, sig: detector.Evaluate(cfg, series), n: len(series)})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].cfg.Key() < results[j].cfg.Key() })
	for _, r := range results {
		if err := s.print(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scan) print(r scanResult) error {
	if r.sig == nil {
		_, err := fmt.Fprintf(s.Out, "%-20s no signal (%d candles)\n", r.cfg.Key(), r.n)
		return err
	}
	_, err := fmt.Fprintf(s.Out, "%-20s SIGNAL %s shadow, %s candle, close=%g shadow_ratio=%.3f volume_ratio=%.2f\n",
		r.cfg.Key(), r.sig.ShadowType, r.sig.CandleType, r.sig.ClosePrice, r.sig.ShadowRatio, r.sig.VolumeRatio)
	return err
}
