package recovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

// StrategyExecutor defines the interface for strategy executors. The
// actual remediation (resizing a pool, flushing a cache) is an
// infrastructure operation owned by the deployment environment;
// implementations plug in here.
type StrategyExecutor interface {
	Execute(ctx context.Context, action *model.RecoveryAction) (*model.ExecutionResult, error)
}

// Registry maps strategies to their executors
type Registry struct {
	mu        sync.RWMutex
	executors map[model.RecoveryStrategy]StrategyExecutor
}

// NewRegistry creates an empty executor registry
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[model.RecoveryStrategy]StrategyExecutor),
	}
}

// Register binds an executor to a strategy, replacing any previous one
func (r *Registry) Register(strategy model.RecoveryStrategy, executor StrategyExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[strategy] = executor
}

// Lookup returns the executor bound to a strategy
func (r *Registry) Lookup(strategy model.RecoveryStrategy) (StrategyExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	executor, ok := r.executors[strategy]
	return executor, ok
}

// DefaultRegistry returns a registry with an echo executor bound to
// every known strategy. Echo executors acknowledge the operation and
// report its effective parameters without touching infrastructure.
func DefaultRegistry(logger *zap.Logger) *Registry {
	registry := NewRegistry()

	registry.Register(model.StrategyRetry, &RetryExecutor{logger: logger.Named("retry")})
	registry.Register(model.StrategyTimeoutIncrease, newEchoExecutor(logger, "Timeout increased", "new_timeout", "new_timeout_ms", 15000))
	registry.Register(model.StrategyCacheClear, newEchoExecutor(logger, "Cache cleared", "cache_type", "cache_type", "redis"))
	registry.Register(model.StrategyPoolIncrease, newEchoExecutor(logger, "Connection pool increased", "new_size", "new_size", 25))
	registry.Register(model.StrategyResourceScale, newEchoExecutor(logger, "Resources scaled", "scale_factor", "scale_factor", 1.5))
	registry.Register(model.StrategyCircuitBreak, newEchoExecutor(logger, "Circuit breaker activated", "timeout", "timeout_seconds", 60))
	registry.Register(model.StrategyFallback, newEchoExecutor(logger, "Switched to fallback service", "fallback_service", "fallback_service", "api-gateway"))
	registry.Register(model.StrategyQueuePriority, newEchoExecutor(logger, "Queue priority boosted", "boost_factor", "boost_factor", 2))
	registry.Register(model.StrategyRequestThrottle, newEchoExecutor(logger, "Request throttling enabled", "rate_limit", "requests_per_minute", 100))
	registry.Register(model.StrategyServiceRestart, newEchoExecutor(logger, "Service restart scheduled", "graceful", "graceful", true))

	return registry
}

// echoExecutor acknowledges a strategy and echoes one of its effective
// parameters back in the result details
type echoExecutor struct {
	logger    *zap.Logger
	message   string
	detailKey string
	paramKey  string
	fallback  interface{}
}

func newEchoExecutor(logger *zap.Logger, message, detailKey, paramKey string, fallback interface{}) *echoExecutor {
	return &echoExecutor{
		logger:    logger.Named("executor"),
		message:   message,
		detailKey: detailKey,
		paramKey:  paramKey,
		fallback:  fallback,
	}
}

// Execute implements StrategyExecutor
func (e *echoExecutor) Execute(ctx context.Context, action *model.RecoveryAction) (*model.ExecutionResult, error) {
	e.logger.Info("Executing recovery action",
		zap.String("strategy", string(action.Strategy)),
		zap.String("service", action.Service))

	value := e.fallback
	if v, ok := action.Parameters[e.paramKey]; ok {
		value = v
	}

	return &model.ExecutionResult{
		Success: true,
		Message: e.message,
		Details: map[string]interface{}{
			e.detailKey: value,
		},
	}, nil
}

// RetryExecutor schedules a retry of the failed operation. The delay
// schedule is computed up front so callers can see exactly when each
// attempt will fire.
type RetryExecutor struct {
	logger *zap.Logger
}

// Execute implements StrategyExecutor
func (e *RetryExecutor) Execute(ctx context.Context, action *model.RecoveryAction) (*model.ExecutionResult, error) {
	maxRetries := intParam(action.Parameters, "max_retries", 3)
	delayMs := intParam(action.Parameters, "retry_delay_ms", 1000)
	exponential := boolParam(action.Parameters, "exponential_backoff", true)

	backoff := &ExponentialBackoff{
		InitialDelay: time.Duration(delayMs) * time.Millisecond,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
	}
	if !exponential {
		backoff.Multiplier = 1.0
	}

	schedule := make([]int64, 0, maxRetries)
	for attempt := 0; attempt < maxRetries; attempt++ {
		schedule = append(schedule, backoff.NextRetry(attempt).Milliseconds())
	}

	e.logger.Info("Retry scheduled",
		zap.String("service", action.Service),
		zap.Int("max_retries", maxRetries))

	return &model.ExecutionResult{
		Success: true,
		Message: "Retry scheduled",
		Details: map[string]interface{}{
			"retry_count": maxRetries,
			"schedule_ms": schedule,
		},
	}, nil
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func boolParam(params map[string]interface{}, key string, fallback bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}
