package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/monitor"
	"github.com/kael9/remedy/internal/storage"
)

// Config defines the maintenance schedules
type Config struct {
	// CleanupSpec is the cron expression for history cleanup
	CleanupSpec string

	// Retention is how long run history is kept
	Retention time.Duration

	// DigestSpec is the cron expression for the recovery digest
	DigestSpec string
}

// DefaultConfig returns the standard maintenance schedules: cleanup at
// 03:00 daily with 30-day retention, digest at the top of every hour.
func DefaultConfig() Config {
	return Config{
		CleanupSpec: "0 0 3 * * *",
		Retention:   30 * 24 * time.Hour,
		DigestSpec:  "0 0 * * * *",
	}
}

// cronLogger adapts zap.Logger to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err))
}

// Maintenance runs the recurring housekeeping jobs: run-history
// retention cleanup and the recovery digest
type Maintenance struct {
	logger  *zap.Logger
	config  Config
	cron    *cron.Cron
	history storage.RunHistoryStorage
	stats   *monitor.StatsCollector
	js      nats.JetStreamContext
}

// NewMaintenance creates the maintenance runner
func NewMaintenance(
	config Config,
	history storage.RunHistoryStorage,
	stats *monitor.StatsCollector,
	js nats.JetStreamContext,
	logger *zap.Logger,
) *Maintenance {
	log := logger.Named("maintenance")
	cronOptions := []cron.Option{
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(&cronLogger{logger: log.Named("cron")})),
	}

	return &Maintenance{
		logger:  log,
		config:  config,
		cron:    cron.New(cronOptions...),
		history: history,
		stats:   stats,
		js:      js,
	}
}

// Start registers the jobs and starts the cron runner
func (m *Maintenance) Start(ctx context.Context) error {
	if m.history != nil {
		if _, err := m.cron.AddFunc(m.config.CleanupSpec, func() { m.cleanup(ctx) }); err != nil {
			return fmt.Errorf("invalid cleanup cron expression: %w", err)
		}
	}

	if m.stats != nil {
		if _, err := m.cron.AddFunc(m.config.DigestSpec, func() { m.digest() }); err != nil {
			return fmt.Errorf("invalid digest cron expression: %w", err)
		}
	}

	m.cron.Start()
	m.logger.Info("Maintenance schedules started",
		zap.String("cleanup", m.config.CleanupSpec),
		zap.String("digest", m.config.DigestSpec))
	return nil
}

// Stop stops the cron runner and waits for running jobs
func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// cleanup deletes run history past the retention window
func (m *Maintenance) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-m.config.Retention)
	if err := m.history.DeleteBefore(ctx, cutoff); err != nil {
		m.logger.Error("Failed to cleanup run history", zap.Error(err))
		return
	}
	m.logger.Info("Run history cleaned up", zap.Time("cutoff", cutoff))
}

// digest publishes the current per-service aggregates
func (m *Maintenance) digest() {
	stats := m.stats.GetStats()

	payload := struct {
		GeneratedAt time.Time                        `json:"generated_at"`
		Services    map[string]*monitor.ServiceStats `json:"services"`
	}{
		GeneratedAt: time.Now(),
		Services:    stats,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("Failed to marshal digest", zap.Error(err))
		return
	}

	if m.js != nil {
		if _, err := m.js.Publish("monitor.digest", data); err != nil {
			m.logger.Error("Failed to publish digest", zap.Error(err))
			return
		}
	}

	m.logger.Info("Recovery digest published", zap.Int("services", len(stats)))
}
