package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

// ServiceStats aggregates recovery outcomes for one service
type ServiceStats struct {
	Service          string    `json:"service"`
	Runs             int64     `json:"runs"`
	Recovered        int64     `json:"recovered"`
	Exhausted        int64     `json:"exhausted"`
	FailedAttempts   int64     `json:"failed_attempts"`
	LastRecoveryTime time.Time `json:"last_recovery_time"`
}

// Snapshot is the periodic stats payload published to JetStream
type Snapshot struct {
	Timestamp   time.Time                `json:"timestamp"`
	CPUUsage    float64                  `json:"cpu_usage"`
	MemoryUsage float64                  `json:"memory_usage"`
	Services    map[string]*ServiceStats `json:"services"`
}

// StatsCollector aggregates recovery reports per service and samples
// host resource usage
type StatsCollector struct {
	logger   *zap.Logger
	js       nats.JetStreamContext
	interval time.Duration
	mu       sync.RWMutex
	services map[string]*ServiceStats
	stop     chan struct{}
}

// NewStatsCollector creates a new stats collector
func NewStatsCollector(js nats.JetStreamContext, interval time.Duration, logger *zap.Logger) *StatsCollector {
	return &StatsCollector{
		logger:   logger.Named("stats-collector"),
		js:       js,
		interval: interval,
		services: make(map[string]*ServiceStats),
		stop:     make(chan struct{}),
	}
}

// Start starts the stats collector
func (c *StatsCollector) Start(ctx context.Context) error {
	c.logger.Info("Starting stats collector")

	_, err := c.js.StreamInfo("MONITOR")
	if err != nil && err != nats.ErrStreamNotFound {
		return fmt.Errorf("failed to get stream info: %w", err)
	}
	if err == nats.ErrStreamNotFound {
		if _, err := c.js.AddStream(&nats.StreamConfig{
			Name:     "MONITOR",
			Subjects: []string{"monitor.>"},
			Storage:  nats.FileStorage,
		}); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	if _, err := c.js.Subscribe("recovery.report.*", c.handleReport); err != nil {
		return fmt.Errorf("failed to subscribe to recovery reports: %w", err)
	}

	go c.collectLoop(ctx)

	return nil
}

// Stop stops the stats collector
func (c *StatsCollector) Stop() {
	c.logger.Info("Stopping stats collector")
	close(c.stop)
}

// GetStats returns a copy of the per-service aggregates
func (c *StatsCollector) GetStats() map[string]*ServiceStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make(map[string]*ServiceStats, len(c.services))
	for service, s := range c.services {
		copied := *s
		stats[service] = &copied
	}
	return stats
}

// handleReport folds one recovery report into the aggregates.
// Subject format: recovery.report.<service>
func (c *StatsCollector) handleReport(msg *nats.Msg) {
	var report model.ExecutionReport
	if err := json.Unmarshal(msg.Data, &report); err != nil {
		c.logger.Error("Failed to unmarshal recovery report", zap.Error(err))
		return
	}

	parts := strings.Split(msg.Subject, ".")
	if len(parts) != 3 {
		c.logger.Error("Invalid recovery report subject",
			zap.String("subject", msg.Subject))
		return
	}
	service := parts[2]

	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.services[service]
	if !ok {
		stats = &ServiceStats{Service: service}
		c.services[service] = stats
	}

	stats.Runs++
	stats.FailedAttempts += int64(len(report.Failed))
	if report.OverallSuccess {
		stats.Recovered++
		stats.LastRecoveryTime = report.CompletedAt
	} else {
		stats.Exhausted++
	}
}

// collectLoop periodically publishes a snapshot
func (c *StatsCollector) collectLoop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			if err := c.publishSnapshot(); err != nil {
				c.logger.Error("Failed to publish stats snapshot", zap.Error(err))
			}
		}
	}
}

// publishSnapshot samples host resources and publishes the aggregates
func (c *StatsCollector) publishSnapshot() error {
	snapshot := Snapshot{
		Timestamp: time.Now(),
		Services:  c.GetStats(),
	}

	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		snapshot.CPUUsage = percentages[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snapshot.MemoryUsage = vm.UsedPercent
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if _, err := c.js.Publish("monitor.stats", data); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	return nil
}
