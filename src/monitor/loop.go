package monitor

import (
	"context"
	"errors"
	"time"

	"shadowmonitor/src/apperrors"
	"shadowmonitor/src/candles"
	"shadowmonitor/src/detector"
	"shadowmonitor/src/model"

	logger "github.com/sirupsen/logrus"
)

const serviceName = "shadowmonitor"

// runLoop ticks immediately and then every cfg.Frequency until ctx is done.
// Ticks never overlap.
func (s *Service) runLoop(ctx context.Context, cfg model.MonitorConfig, interval candles.Interval, done chan<- struct{}) {
	defer close(done)

	log := s.log.WithField("key", cfg.Key())
	log.WithField("frequency", cfg.Frequency).Info("loop started")

	ticker := time.NewTicker(time.Duration(cfg.Frequency) * s.unit)
	defer ticker.Stop()

	s.tick(ctx, cfg, interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("loop stopped")
			return
		case <-ticker.C:
			s.tick(ctx, cfg, interval)
		}
	}
}

// tick runs fetch -> detect -> notify -> dispatch once. Failures are logged
// and persisted; they never end the loop.
func (s *Service) tick(ctx context.Context, cfg model.MonitorConfig, interval candles.Interval) {
	if ctx.Err() != nil {
		return
	}

	log := s.log.WithFields(map[string]interface{}{
		"op":  "tick",
		"key": cfg.Key(),
	})

	tickCtx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	series, err := s.deps.Candles.Fetch(tickCtx, cfg.Symbol, interval, cfg.HistoryHours)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.recordError(cfg, "fetch_candles", err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	s.lastCheck.Store(s.now().Unix())

	sig := detector.Evaluate(cfg, series)
	if sig == nil {
		log.WithField("candles", len(series)).Debug("no signal")
		return
	}

	exists, err := s.deps.Signals.Exists(tickCtx, sig.Symbol, sig.IntervalType, sig.Timestamp)
	if err != nil {
		s.recordError(cfg, "signal_exists", err)
		return
	}
	if exists {
		log.WithField("ts", sig.Timestamp).Debug("signal already logged")
		return
	}

	inserted, err := s.deps.Signals.Append(tickCtx, sig)
	if err != nil {
		s.recordError(cfg, "append_signal", err)
		return
	}
	if !inserted {
		return
	}

	log.WithFields(map[string]interface{}{
		"ts":           sig.Timestamp,
		"shadow":       sig.ShadowType,
		"candle":       sig.CandleType,
		"shadow_ratio": sig.ShadowRatio,
		"volume_ratio": sig.VolumeRatio,
	}).Info("long shadow signal")

	s.deps.Notifier.NotifySignal(tickCtx, cfg, *sig)

	if !cfg.EnableAutoTrading || ctx.Err() != nil {
		return
	}

	order, err := s.deps.Dispatcher.Dispatch(tickCtx, *sig, cfg)
	if order != nil {
		s.deps.Notifier.NotifyOrder(tickCtx, cfg, *order)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return
		}
		s.recordError(cfg, "dispatch_order", err)
	}
}

func (s *Service) recordError(cfg model.MonitorConfig, method string, err error) {
	kind := apperrors.Kind(err)

	s.log.WithFields(map[string]interface{}{
		"op":   method,
		"key":  cfg.Key(),
		"kind": kind,
	}).WithError(err).Error("tick failed")

	// persisted even while stopping
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exc := &model.Exception{
		Service: serviceName,
		Module:  "monitor",
		Method:  method,
		Message: err.Error(),
		Kind:    kind,
		Level:   logger.ErrorLevel.String(),
		Context: cfg.Key(),
	}
	if perr := s.deps.Exceptions.Create(ctx, exc); perr != nil {
		s.log.WithError(perr).Warn("failed to persist exception")
	}
}
