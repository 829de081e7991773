// Package configstore owns the monitor config set: validation, persistence
// and a copy-on-write snapshot for the schedule loops.
package configstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"shadowmonitor/src/apperrors"
	"shadowmonitor/src/model"

	"github.com/sirupsen/logrus"
)

type repository interface {
	List(ctx context.Context) ([]model.MonitorConfig, error)
	ReplaceAll(ctx context.Context, configs []model.MonitorConfig) error
}

type symbolResolver interface {
	Resolved(symbol string) bool
}

type Store struct {
	repo      repository
	contracts symbolResolver

	snapshot atomic.Pointer[[]model.MonitorConfig]
	// serializes writers; readers only touch snapshot
	writeMu sync.Mutex
	log     *logrus.Entry
}

func New(repo repository, contracts symbolResolver) *Store {
	s := &Store{
		repo:      repo,
		contracts: contracts,
		log:       logrus.WithField("component", "config_store"),
	}
	empty := []model.MonitorConfig{}
	s.snapshot.Store(&empty)
	return s
}

// Load hydrates the snapshot from storage. Stored configs are trusted; symbol
// resolution is checked again when they are traded.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	configs, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load monitor configs: %w", err)
	}
	s.snapshot.Store(&configs)
	s.log.WithField("count", len(configs)).Info("monitor configs loaded")
	return nil
}

// List returns a copy of the current config set.
func (s *Store) List() []model.MonitorConfig {
	cur := *s.snapshot.Load()
	out := make([]model.MonitorConfig, len(cur))
	copy(out, cur)
	return out
}

// ReplaceAll validates every entry and, only if all pass, persists the batch
// and publishes it. The first invalid entry is reported as a ValidationError.
func (s *Store) ReplaceAll(ctx context.Context, configs []model.MonitorConfig) ([]model.MonitorConfig, error) {
	next := make([]model.MonitorConfig, len(configs))
	seen := make(map[string]int, len(configs))

	for i, cfg := range configs {
		cfg = applyDefaults(cfg)
		cfg.ID = 0

		if reason := validateShape(cfg); reason != "" {
			return nil, &apperrors.ValidationError{Index: i, Reason: reason}
		}
		if !s.contracts.Resolved(cfg.Symbol) {
			return nil, &apperrors.ValidationError{Index: i, Reason: fmt.Sprintf("symbol %s not found in contract list", cfg.Symbol)}
		}
		if prev, dup := seen[cfg.Key()]; dup {
			return nil, &apperrors.ValidationError{Index: i, Reason: fmt.Sprintf("duplicate of entry %d (%s %s)", prev, cfg.Symbol, cfg.IntervalType)}
		}
		seen[cfg.Key()] = i
		next[i] = cfg
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.ReplaceAll(ctx, next); err != nil {
		return nil, fmt.Errorf("persist monitor configs: %w", err)
	}
	s.snapshot.Store(&next)

	s.log.WithField("count", len(next)).Info("monitor configs replaced")
	return s.List(), nil
}
