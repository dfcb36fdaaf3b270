// Package scheduler runs periodic store maintenance: audit-log retention and
// database compaction.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultPruneSpec  = "30 3 * * *" // daily at 03:30
	defaultVacuumSpec = "0 4 * * 0"  // sundays at 04:00

	defaultRetention = 30 * 24 * time.Hour
)

// MaintenanceStore is the slice of the persistence layer maintenance needs.
type MaintenanceStore interface {
	PruneDispatches(ctx context.Context, olderThan time.Time) (int64, error)
	Vacuum(ctx context.Context) error
}

// Config tunes the maintenance cadence. Zero values take the defaults.
type Config struct {
	PruneSpec  string
	VacuumSpec string
	Retention  time.Duration
}

// Maintenance owns the cron runner for periodic store upkeep.
type Maintenance struct {
	store  MaintenanceStore
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewMaintenance creates the maintenance scheduler. It does not start it.
func NewMaintenance(s MaintenanceStore, cfg Config, logger *slog.Logger) *Maintenance {
	if cfg.PruneSpec == "" {
		cfg.PruneSpec = defaultPruneSpec
	}
	if cfg.VacuumSpec == "" {
		cfg.VacuumSpec = defaultVacuumSpec
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintenance{store: s, cfg: cfg, logger: logger}
}

// Start registers the cron entries and launches the runner.
func (m *Maintenance) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cron != nil {
		return fmt.Errorf("maintenance already started")
	}

	runner := cron.New()
	if _, err := runner.AddFunc(m.cfg.PruneSpec, func() { m.pruneDispatchLog(ctx) }); err != nil {
		return fmt.Errorf("prune schedule %q: %w", m.cfg.PruneSpec, err)
	}
	if _, err := runner.AddFunc(m.cfg.VacuumSpec, func() { m.vacuum(ctx) }); err != nil {
		return fmt.Errorf("vacuum schedule %q: %w", m.cfg.VacuumSpec, err)
	}

	runner.Start()
	m.cron = runner
	m.logger.Info("maintenance scheduler started",
		slog.String("prune", m.cfg.PruneSpec),
		slog.String("vacuum", m.cfg.VacuumSpec),
		slog.Duration("retention", m.cfg.Retention),
	)
	return nil
}

// Stop halts the runner and waits for any in-flight job to finish.
func (m *Maintenance) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	m.cron = nil
	m.logger.Info("maintenance scheduler stopped")
}

func (m *Maintenance) pruneDispatchLog(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.cfg.Retention)
	pruned, err := m.store.PruneDispatches(ctx, cutoff)
	if err != nil {
		m.logger.Error("dispatch log prune failed", slog.Any("error", err))
		return
	}
	if pruned > 0 {
		m.logger.Info("dispatch log pruned", slog.Int64("removed", pruned))
	}
}

func (m *Maintenance) vacuum(ctx context.Context) {
	if err := m.store.Vacuum(ctx); err != nil {
		m.logger.Error("vacuum failed", slog.Any("error", err))
		return
	}
	m.logger.Info("vacuum completed")
}
