package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/alert"
	"github.com/kael9/remedy/internal/classifier"
	"github.com/kael9/remedy/internal/model"
	"github.com/kael9/remedy/internal/recovery"
	"github.com/kael9/remedy/internal/storage"
	"github.com/kael9/remedy/internal/strategy"
)

// RunResult carries everything produced by one pipeline invocation
type RunResult struct {
	State          model.RunState              `json:"state"`
	Classification *model.ClassificationResult `json:"classification"`
	Actions        []*model.RecoveryAction     `json:"actions"`
	Report         *model.ExecutionReport      `json:"report"`
	Dispatch       *alert.DispatchResult       `json:"dispatch,omitempty"`
}

// Pipeline runs the classify -> select -> execute -> alert chain for
// one error event. Each invocation is self-contained: the only state
// shared between concurrent runs is the read-only lookup tables inside
// the stages.
type Pipeline struct {
	logger     *zap.Logger
	classifier *classifier.Classifier
	selector   *strategy.Selector
	executor   *recovery.Executor
	dispatcher *alert.Dispatcher
	history    storage.RunHistoryStorage
	js         nats.JetStreamContext
}

// Option configures optional pipeline collaborators
type Option func(*Pipeline)

// WithHistory records every run in the given storage
func WithHistory(history storage.RunHistoryStorage) Option {
	return func(p *Pipeline) { p.history = history }
}

// WithJetStream publishes reports and alerts to JetStream subjects
func WithJetStream(js nats.JetStreamContext) Option {
	return func(p *Pipeline) { p.js = js }
}

// New assembles a pipeline from its four stages
func New(
	cls *classifier.Classifier,
	sel *strategy.Selector,
	exec *recovery.Executor,
	disp *alert.Dispatcher,
	logger *zap.Logger,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		logger:     logger.Named("pipeline"),
		classifier: cls,
		selector:   sel,
		executor:   exec,
		dispatcher: disp,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle runs the full pipeline for one error event. The returned
// result is valid even when recovery is exhausted; only cancellation
// between stages aborts a run early.
func (p *Pipeline) Handle(ctx context.Context, event *model.ErrorEvent) (*RunResult, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	startedAt := time.Now()
	result := &RunResult{State: model.RunStateReceived}

	p.logger.Info("Error event received",
		zap.String("error_id", event.ID),
		zap.String("service", event.Service),
		zap.String("category", string(event.Category)),
		zap.String("severity", string(event.Severity)))

	result.Classification = p.classifier.Classify(event)
	result.State = model.RunStateClassified

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("pipeline abandoned after classification: %w", err)
	}

	result.Actions = p.selector.Select(result.Classification)
	result.State = model.RunStateStrategiesSelected

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("pipeline abandoned after selection: %w", err)
	}

	result.State = model.RunStateExecuting
	result.Report = p.executor.Run(ctx, event.ID, result.Actions)
	if result.Report.OverallSuccess {
		result.State = model.RunStateRecovered
	} else {
		result.State = model.RunStateExhausted
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("pipeline abandoned after execution: %w", err)
	}

	result.Dispatch = p.dispatcher.Dispatch(ctx, result.Classification, result.Report)
	result.State = model.RunStateAlerted

	p.record(ctx, event, result, startedAt)
	p.publish(event, result)

	result.State = model.RunStateDone
	return result, nil
}

// record persists the run when history storage is configured
func (p *Pipeline) record(ctx context.Context, event *model.ErrorEvent, result *RunResult, startedAt time.Time) {
	if p.history == nil {
		return
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event for history", zap.Error(err))
		return
	}
	reportJSON, err := json.Marshal(result.Report)
	if err != nil {
		p.logger.Error("Failed to marshal report for history", zap.Error(err))
		return
	}

	completedAt := result.Report.CompletedAt
	record := &storage.RunRecord{
		ID:             uuid.New().String(),
		ErrorID:        event.ID,
		Service:        event.Service,
		Category:       string(event.Category),
		Severity:       string(event.Severity.Normalize()),
		State:          result.State,
		Event:          eventJSON,
		Report:         reportJSON,
		OverallSuccess: result.Report.OverallSuccess,
		StartedAt:      startedAt,
		CompletedAt:    &completedAt,
	}

	if err := p.history.Store(ctx, record); err != nil {
		p.logger.Error("Failed to store run history",
			zap.String("error_id", event.ID),
			zap.Error(err))
	}
}

// publish emits the report and alert record when JetStream is configured
func (p *Pipeline) publish(event *model.ErrorEvent, result *RunResult) {
	if p.js == nil {
		return
	}

	reportData, err := json.Marshal(result.Report)
	if err != nil {
		p.logger.Error("Failed to marshal report", zap.Error(err))
	} else if _, err := p.js.Publish(fmt.Sprintf("recovery.report.%s", event.Service), reportData); err != nil {
		p.logger.Error("Failed to publish recovery report",
			zap.String("error_id", event.ID),
			zap.Error(err))
	}

	if result.Dispatch == nil || result.Dispatch.Alert == nil {
		return
	}

	alertData, err := json.Marshal(result.Dispatch.Alert)
	if err != nil {
		p.logger.Error("Failed to marshal alert", zap.Error(err))
		return
	}
	if _, err := p.js.Publish(fmt.Sprintf("alert.%s", event.Severity.Normalize()), alertData); err != nil {
		p.logger.Error("Failed to publish alert",
			zap.String("error_id", event.ID),
			zap.Error(err))
	}
}
