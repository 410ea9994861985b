package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/alert"
	"github.com/kael9/remedy/internal/classifier"
	"github.com/kael9/remedy/internal/model"
	"github.com/kael9/remedy/internal/monitor"
	"github.com/kael9/remedy/internal/pipeline"
	"github.com/kael9/remedy/internal/recovery"
	"github.com/kael9/remedy/internal/schedule"
	"github.com/kael9/remedy/internal/storage"
	"github.com/kael9/remedy/internal/strategy"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	setDefaults()
	if err := viper.ReadInConfig(); err != nil {
		logger.Fatal("Failed to read config file", zap.Error(err))
	}

	// Connect to NATS with more options
	opts := []nats.Option{
		nats.Name(viper.GetString("app.name")),
		nats.MaxReconnects(viper.GetInt("nats.max_reconnects")),
		nats.ReconnectWait(viper.GetDuration("nats.reconnect_wait")),
		nats.Timeout(viper.GetDuration("nats.connect_timeout")),
		nats.PingInterval(20 * time.Second),
		nats.MaxPingsOutstanding(5),
		nats.DrainTimeout(30 * time.Second),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("NATS connection error",
				zap.String("subject", sub.Subject),
				zap.Error(err))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected",
				zap.String("url", nc.ConnectedUrl()))
		}),
	}

	// Connect with retry
	var nc *nats.Conn
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		nc, err = nats.Connect(viper.GetString("nats.url"), opts...)
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to NATS, retrying...",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		logger.Fatal("Failed to connect to NATS after retries", zap.Error(err))
	}
	defer nc.Close()

	logger.Info("Connected to NATS successfully",
		zap.String("url", nc.ConnectedUrl()))

	// Create JetStream context
	js, err := nc.JetStream()
	if err != nil {
		logger.Fatal("Failed to create JetStream context", zap.Error(err))
	}

	// Create run history storage
	history, err := storage.NewSQLiteRunHistory(logger, viper.GetString("storage.path"))
	if err != nil {
		logger.Fatal("Failed to create run history storage", zap.Error(err))
	}
	defer history.Close()

	// Assemble the pipeline stages
	errorClassifier := classifier.New(classifier.DefaultConfig(), logger)
	selector := strategy.NewSelector(strategy.DefaultConfig(), logger)

	registry := recovery.DefaultRegistry(logger)
	if viper.GetBool("recovery.docker.enabled") {
		containers := viper.GetStringMapString("recovery.docker.containers")
		restart, err := recovery.NewDockerRestartExecutor(containers, logger)
		if err != nil {
			logger.Fatal("Failed to create Docker restart executor", zap.Error(err))
		}
		registry.Register(model.StrategyServiceRestart, restart)
		logger.Info("Docker restart executor registered",
			zap.Int("containers", len(containers)))
	}

	executorConfig := recovery.Config{
		ActionTimeout: viper.GetDuration("recovery.action_timeout"),
	}
	executor := recovery.NewExecutor(registry, executorConfig, logger)

	dispatcherConfig := alert.Config{
		DefaultRecipients:    viper.GetStringSlice("alerts.recipients"),
		EscalationRecipients: viper.GetStringSlice("alerts.escalation_recipients"),
		SendTimeout:          viper.GetDuration("alerts.send_timeout"),
	}
	dispatcher := alert.NewDispatcher(dispatcherConfig, logger)
	dispatcher.RegisterChannel(alert.NewEmailChannel(alert.EmailConfig{
		Host:     viper.GetString("alerts.email.host"),
		Port:     viper.GetInt("alerts.email.port"),
		Username: viper.GetString("alerts.email.username"),
		Password: viper.GetString("alerts.email.password"),
		From:     viper.GetString("alerts.email.from"),
	}, logger))
	dispatcher.RegisterChannel(alert.NewSlackChannel(viper.GetString("alerts.slack.webhook_url"), logger))
	dispatcher.RegisterChannel(alert.NewWebhookChannel(viper.GetString("alerts.webhook.url"), logger))
	dispatcher.RegisterChannel(alert.NewSMSChannel(logger))

	recoveryPipeline := pipeline.New(
		errorClassifier,
		selector,
		executor,
		dispatcher,
		logger,
		pipeline.WithHistory(history),
		pipeline.WithJetStream(js),
	)

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	// Start the ingestion service
	service := pipeline.NewService(js, recoveryPipeline, logger)
	if err := service.Start(ctx); err != nil {
		logger.Fatal("Failed to start pipeline service", zap.Error(err))
	}
	defer service.Stop()

	// Start the stats collector
	collector := monitor.NewStatsCollector(js, viper.GetDuration("monitor.interval"), logger)
	if err := collector.Start(ctx); err != nil {
		logger.Fatal("Failed to start stats collector", zap.Error(err))
	}
	defer collector.Stop()

	// Start maintenance schedules
	maintenanceConfig := schedule.Config{
		CleanupSpec: viper.GetString("maintenance.cleanup_spec"),
		Retention:   viper.GetDuration("maintenance.retention"),
		DigestSpec:  viper.GetString("maintenance.digest_spec"),
	}
	maintenance := schedule.NewMaintenance(maintenanceConfig, history, collector, js, logger)
	if err := maintenance.Start(ctx); err != nil {
		logger.Fatal("Failed to start maintenance schedules", zap.Error(err))
	}
	defer maintenance.Stop()

	// Submit example error events
	if viper.GetBool("demo.enabled") {
		exampleEvents := []*model.ErrorEvent{
			{
				Service:   "django",
				Category:  model.CategoryConnection,
				Message:   "Connection refused by upstream",
				Severity:  model.SeverityHigh,
				Frequency: 1,
			},
			{
				Service:   "laravel",
				Category:  "UnknownType",
				Message:   "Unexpected condition",
				Severity:  model.SeverityLow,
				Frequency: 1,
			},
		}

		for _, event := range exampleEvents {
			if err := service.Report(ctx, event); err != nil {
				logger.Error("Failed to report example event",
					zap.String("service", event.Service),
					zap.Error(err))
			}
		}
	}

	// Wait for shutdown signal
	<-ctx.Done()

	logger.Info("Server shutting down gracefully")
}

func setDefaults() {
	viper.SetDefault("app.name", "remedy")
	viper.SetDefault("nats.url", nats.DefaultURL)
	viper.SetDefault("nats.max_reconnects", 10)
	viper.SetDefault("nats.reconnect_wait", 2*time.Second)
	viper.SetDefault("nats.connect_timeout", 5*time.Second)
	viper.SetDefault("storage.path", "run_history.db")
	viper.SetDefault("recovery.action_timeout", 5*time.Second)
	viper.SetDefault("alerts.send_timeout", 5*time.Second)
	viper.SetDefault("monitor.interval", 30*time.Second)
	viper.SetDefault("maintenance.cleanup_spec", "0 0 3 * * *")
	viper.SetDefault("maintenance.retention", 30*24*time.Hour)
	viper.SetDefault("maintenance.digest_spec", "0 0 * * * *")
	viper.SetDefault("demo.enabled", false)
}
