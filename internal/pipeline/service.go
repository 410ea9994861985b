package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

const (
	errorStreamName    = "ERRORS"
	errorReportSubject = "error.reported"

	recoveryStreamName = "RECOVERY"
	alertStreamName    = "ALERTS"

	streamMaxAge  = 24 * time.Hour
	streamMaxMsgs = -1
)

// Service consumes reported error events from JetStream and runs the
// pipeline for each one. Every event gets its own goroutine; there is
// no coordination between concurrent runs.
type Service struct {
	logger   *zap.Logger
	js       nats.JetStreamContext
	pipeline *Pipeline
	sub      *nats.Subscription
}

// NewService creates the event ingestion service
func NewService(js nats.JetStreamContext, p *Pipeline, logger *zap.Logger) *Service {
	return &Service{
		logger:   logger.Named("pipeline-service"),
		js:       js,
		pipeline: p,
	}
}

// Start sets up streams and subscribes to reported errors
func (s *Service) Start(ctx context.Context) error {
	if err := s.setupStreams(); err != nil {
		return fmt.Errorf("failed to setup streams: %w", err)
	}

	sub, err := s.js.Subscribe(errorReportSubject+".*", func(msg *nats.Msg) {
		var event model.ErrorEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Error("Failed to unmarshal error event",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			msg.Ack()
			return
		}
		msg.Ack()

		go func() {
			if _, err := s.pipeline.Handle(ctx, &event); err != nil {
				s.logger.Error("Pipeline run failed",
					zap.String("error_id", event.ID),
					zap.Error(err))
			}
		}()
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to error events: %w", err)
	}
	s.sub = sub

	s.logger.Info("Pipeline service started")
	return nil
}

// Stop stops consuming events
func (s *Service) Stop() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.logger.Info("Pipeline service stopped")
}

// Report publishes an error event for asynchronous processing
func (s *Service) Report(ctx context.Context, event *model.ErrorEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal error event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", errorReportSubject, event.Service)
	if _, err := s.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish error event: %w", err)
	}

	s.logger.Info("Error event reported",
		zap.String("error_id", event.ID),
		zap.String("subject", subject))
	return nil
}

// setupStreams creates the streams the service publishes to and
// consumes from
func (s *Service) setupStreams() error {
	streams := []nats.StreamConfig{
		{
			Name:     errorStreamName,
			Subjects: []string{"error.>"},
			Storage:  nats.FileStorage,
			MaxAge:   streamMaxAge,
			MaxMsgs:  streamMaxMsgs,
		},
		{
			Name:     recoveryStreamName,
			Subjects: []string{"recovery.>"},
			Storage:  nats.FileStorage,
			MaxAge:   streamMaxAge,
			MaxMsgs:  streamMaxMsgs,
		},
		{
			Name:     alertStreamName,
			Subjects: []string{"alert.>"},
			Storage:  nats.FileStorage,
			MaxAge:   streamMaxAge,
			MaxMsgs:  streamMaxMsgs,
		},
	}

	for _, cfg := range streams {
		if _, err := s.js.AddStream(&cfg); err != nil {
			if err == nats.ErrStreamNameAlreadyInUse {
				s.logger.Info("Stream already exists", zap.String("stream", cfg.Name))
				continue
			}
			return fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
		}
		s.logger.Info("Stream created", zap.String("stream", cfg.Name))
	}

	return nil
}
