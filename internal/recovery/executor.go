package recovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

// Config defines configuration for the recovery executor
type Config struct {
	// ActionTimeout bounds each strategy executor call so one slow
	// external operation cannot stall the whole run
	ActionTimeout time.Duration
}

// DefaultConfig returns the standard executor configuration
func DefaultConfig() Config {
	return Config{
		ActionTimeout: 5 * time.Second,
	}
}

// Executor attempts recovery actions in priority order until one
// succeeds. Executor-level failures are recorded, never propagated;
// the recovery pipeline must not itself cascade.
type Executor struct {
	logger   *zap.Logger
	registry *Registry
	config   Config
}

// NewExecutor creates a recovery executor backed by the given registry
func NewExecutor(registry *Registry, config Config, logger *zap.Logger) *Executor {
	return &Executor{
		logger:   logger.Named("recovery-executor"),
		registry: registry,
		config:   config,
	}
}

// Run executes the candidate actions in ascending priority-rank order
// (CRITICAL before HIGH before MEDIUM before LOW, stable for ties) and
// stops at the first success. Remaining actions are left unattempted.
func (e *Executor) Run(ctx context.Context, errorID string, actions []*model.RecoveryAction) *model.ExecutionReport {
	report := &model.ExecutionReport{
		ErrorID:   errorID,
		Executed:  []model.ActionOutcome{},
		Failed:    []model.ActionOutcome{},
		StartedAt: time.Now(),
	}

	if len(actions) == 0 {
		report.Summary = "No recovery actions available"
		report.CompletedAt = time.Now()
		return report
	}

	ordered := make([]*model.RecoveryAction, len(actions))
	copy(ordered, actions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, action := range ordered {
		if ctx.Err() != nil {
			e.logger.Warn("Recovery run abandoned",
				zap.String("error_id", errorID),
				zap.Error(ctx.Err()))
			break
		}

		outcome := e.attempt(ctx, action)

		if outcome.Success {
			report.Executed = append(report.Executed, outcome)
			report.OverallSuccess = true
			report.Summary = fmt.Sprintf("Recovery successful: %s", action.Strategy)
			break
		}
		report.Failed = append(report.Failed, outcome)
	}

	if !report.OverallSuccess && report.Summary == "" {
		report.Summary = fmt.Sprintf("Recovery failed: %d actions exhausted", len(report.Failed))
	}

	report.CompletedAt = time.Now()

	e.logger.Info("Recovery run completed",
		zap.String("error_id", errorID),
		zap.Bool("success", report.OverallSuccess),
		zap.Int("failed_attempts", len(report.Failed)))

	return report
}

// attempt executes a single action, downgrading errors and panics to
// failed attempts
func (e *Executor) attempt(ctx context.Context, action *model.RecoveryAction) model.ActionOutcome {
	outcome := model.ActionOutcome{
		ActionID:    action.ID,
		Strategy:    action.Strategy,
		AttemptedAt: time.Now(),
	}

	executor, ok := e.registry.Lookup(action.Strategy)
	if !ok {
		outcome.Error = fmt.Errorf("%w: %s", ErrNoExecutor, action.Strategy).Error()
		action.Executed = true
		action.Result = &model.ExecutionResult{Success: false, Message: outcome.Error}
		return outcome
	}

	execCtx, cancel := context.WithTimeout(ctx, e.config.ActionTimeout)
	defer cancel()

	result, err := e.safeExecute(execCtx, executor, action)

	action.Executed = true
	if err != nil {
		e.logger.Error("Recovery action failed",
			zap.String("action_id", action.ID),
			zap.String("strategy", string(action.Strategy)),
			zap.Error(err))
		outcome.Error = err.Error()
		action.Result = &model.ExecutionResult{Success: false, Message: err.Error()}
		return outcome
	}

	action.Result = result
	outcome.Success = result.Success
	outcome.Message = result.Message
	outcome.Details = result.Details
	if !result.Success && result.Message != "" {
		outcome.Error = result.Message
	}

	return outcome
}

// safeExecute invokes a strategy executor, converting panics to errors
func (e *Executor) safeExecute(ctx context.Context, executor StrategyExecutor, action *model.RecoveryAction) (result *model.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("strategy executor panic: %v", r)
		}
	}()

	return executor.Execute(ctx, action)
}
