// Package monitor runs one schedule loop per active config and exposes the
// Stopped/Running lifecycle.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"shadowmonitor/src/candles"
	"shadowmonitor/src/model"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type configLister interface {
	List() []model.MonitorConfig
}

type candleSource interface {
	Fetch(ctx context.Context, symbol string, interval candles.Interval, historyHours float64) ([]model.Candle, error)
}

type signalLog interface {
	Exists(ctx context.Context, symbol, interval string, timestamp int64) (bool, error)
	Append(ctx context.Context, sig *model.Signal) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type orderCounter interface {
	Count(ctx context.Context) (int64, error)
}

type orderDispatcher interface {
	Dispatch(ctx context.Context, sig model.Signal, cfg model.MonitorConfig) (*model.Order, error)
}

type alerter interface {
	NotifySignal(ctx context.Context, cfg model.MonitorConfig, sig model.Signal)
	NotifyOrder(ctx context.Context, cfg model.MonitorConfig, order model.Order)
}

type contractCounter interface {
	Len() int
}

type exceptionLog interface {
	Create(ctx context.Context, exc *model.Exception) error
	Recent(ctx context.Context, limit int) ([]model.Exception, error)
}

// Deps are the collaborators a Service drives. All are required.
type Deps struct {
	Configs    configLister
	Candles    candleSource
	Signals    signalLog
	Orders     orderCounter
	Dispatcher orderDispatcher
	Notifier   alerter
	Contracts  contractCounter
	Exceptions exceptionLog
}

type loopHandle struct {
	symbol string
	cancel context.CancelFunc
	done   chan struct{}
}

// Service is safe for concurrent use.
type Service struct {
	deps Deps
	cfg  Config

	mu       sync.Mutex
	running  bool
	stopping bool // set while Stop waits for loops with mu released
	loops    map[string]*loopHandle

	lastCheck atomic.Int64

	// unit of MonitorConfig.Frequency
	unit time.Duration
	now  func() time.Time
	log  *logger.Entry
}

func NewService(deps Deps, cfg Config) *Service {
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 10 * time.Second
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 30 * time.Second
	}
	if cfg.RecentErrors <= 0 {
		cfg.RecentErrors = 5
	}
	return &Service{
		deps:  deps,
		cfg:   cfg,
		loops: map[string]*loopHandle{},
		unit:  time.Second,
		now:   time.Now,
		log:   logger.WithField("component", "monitor"),
	}
}

// IsRunning reports the lifecycle state.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start snapshots the active configs and spawns a loop for each. It fails,
// leaving the service stopped, when already running or nothing is active.
func (s *Service) Start() model.OperationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return model.OperationResult{Success: false, Message: "monitor is stopping"}
	}
	if s.running {
		return model.OperationResult{Success: false, Message: "monitor is already running"}
	}

	type planned struct {
		cfg      model.MonitorConfig
		interval candles.Interval
	}
	var plan []planned
	for _, cfg := range s.deps.Configs.List() {
		if !cfg.IsActive {
			continue
		}
		interval, err := candles.ParseInterval(cfg.IntervalType)
		if err != nil || cfg.Frequency <= 0 {
			s.log.WithField("key", cfg.Key()).WithError(err).Warn("config not schedulable, skipped")
			continue
		}
		plan = append(plan, planned{cfg: cfg, interval: interval})
	}
	if len(plan) == 0 {
		return model.OperationResult{Success: false, Message: "no active monitor configs"}
	}

	for _, p := range plan {
		ctx, cancel := context.WithCancel(context.Background())
		h := &loopHandle{symbol: p.cfg.Symbol, cancel: cancel, done: make(chan struct{})}
		s.loops[p.cfg.Key()] = h
		go s.runLoop(ctx, p.cfg, p.interval, h.done)
	}
	s.running = true

	s.log.WithField("loops", len(plan)).Info("monitor started")
	return model.OperationResult{Success: true, Message: fmt.Sprintf("monitor started with %d configs", len(plan))}
}

// Stop cancels every loop and waits for them to quiesce, up to the stop
// timeout. Loops still busy after that are reported as force-terminated.
// The lock is not held while waiting, so Status stays responsive.
func (s *Service) Stop() model.OperationResult {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return model.OperationResult{Success: false, Message: "monitor is stopping"}
	}
	if !s.running {
		s.mu.Unlock()
		return model.OperationResult{Success: false, Message: "monitor is not running"}
	}
	s.stopping = true
	loops := make(map[string]*loopHandle, len(s.loops))
	for key, h := range s.loops {
		loops[key] = h
		h.cancel()
	}
	s.mu.Unlock()

	deadline := time.NewTimer(s.cfg.StopTimeout)
	defer deadline.Stop()

	var forced []string
	expired := false
	for key, h := range loops {
		if expired {
			select {
			case <-h.done:
			default:
				forced = append(forced, key)
			}
			continue
		}
		select {
		case <-h.done:
		case <-deadline.C:
			expired = true
			forced = append(forced, key)
		}
	}

	s.mu.Lock()
	s.loops = map[string]*loopHandle{}
	s.running = false
	s.stopping = false
	s.mu.Unlock()

	if len(forced) > 0 {
		sort.Strings(forced)
		s.log.WithField("loops", forced).Warn("loops did not stop in time, force-terminated")
		return model.OperationResult{
			Success: true,
			Message: "monitor stopped; force-terminated: " + strings.Join(forced, ", "),
		}
	}

	s.log.Info("monitor stopped")
	return model.OperationResult{Success: true, Message: "monitor stopped"}
}

// Status derives the current MonitorStatus from the loops and the logs.
func (s *Service) Status(ctx context.Context) (model.MonitorStatus, error) {
	s.mu.Lock()
	st := model.MonitorStatus{
		IsRunning:     s.running,
		Stopping:      s.stopping,
		ActiveSymbols: activeSymbols(s.loops),
	}
	s.mu.Unlock()

	st.TotalContracts = s.deps.Contracts.Len()
	st.LastCheck = s.lastCheck.Load()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.deps.Signals.Count(gctx)
		st.TotalSignals = n
		return err
	})
	g.Go(func() error {
		n, err := s.deps.Orders.Count(gctx)
		st.TotalOrders = n
		return err
	})
	g.Go(func() error {
		recent, err := s.deps.Exceptions.Recent(gctx, s.cfg.RecentErrors)
		st.RecentErrors = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return model.MonitorStatus{}, err
	}

	if st.RecentErrors == nil {
		st.RecentErrors = []model.Exception{}
	}
	return st, nil
}

func activeSymbols(loops map[string]*loopHandle) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, h := range loops {
		if _, ok := seen[h.symbol]; ok {
			continue
		}
		seen[h.symbol] = struct{}{}
		out = append(out, h.symbol)
	}
	sort.Strings(out)
	return out
}
