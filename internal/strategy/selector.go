package strategy

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

// Config holds the selector's static tables. The defaults encode the
// priors and parameter templates the rest of the system is tuned for.
type Config struct {
	// SuccessRates maps each strategy to its fixed success-rate prior
	SuccessRates map[model.RecoveryStrategy]float64

	// DefaultSuccessRate applies to strategies missing from SuccessRates
	DefaultSuccessRate float64

	// FallbackServices maps a service to the service that covers for it
	FallbackServices map[string]string

	// DefaultFallbackService covers services with no explicit mapping
	DefaultFallbackService string

	// ConfidenceDecay is the per-position confidence reduction factor
	ConfidenceDecay float64
}

// DefaultConfig returns the standard selection tables
func DefaultConfig() Config {
	return Config{
		SuccessRates: map[model.RecoveryStrategy]float64{
			model.StrategyRetry:           0.75,
			model.StrategyTimeoutIncrease: 0.65,
			model.StrategyCacheClear:      0.80,
			model.StrategyPoolIncrease:    0.85,
			model.StrategyResourceScale:   0.80,
			model.StrategyCircuitBreak:    0.90,
			model.StrategyFallback:        0.95,
			model.StrategyQueuePriority:   0.70,
			model.StrategyRequestThrottle: 0.65,
			model.StrategyServiceRestart:  0.88,
		},
		DefaultSuccessRate: 0.5,
		FallbackServices: map[string]string{
			"django":  "laravel",
			"laravel": "django",
			"java":    "react",
			"react":   "angular",
			"angular": "vue",
			"vue":     "flutter",
			"flutter": "react",
		},
		DefaultFallbackService: "api-gateway",
		ConfidenceDecay:        0.1,
	}
}

// Selector expands a classification into concrete, ranked recovery
// actions. It is deterministic and has no side effects.
type Selector struct {
	logger *zap.Logger
	config Config
}

// NewSelector creates a selector with the given configuration
func NewSelector(config Config, logger *zap.Logger) *Selector {
	return &Selector{
		logger: logger.Named("selector"),
		config: config,
	}
}

// Select generates one recovery action per candidate strategy, in the
// candidate order from the classification. Confidence declines per
// position and never goes negative.
func (s *Selector) Select(result *model.ClassificationResult) []*model.RecoveryAction {
	actions := make([]*model.RecoveryAction, 0, len(result.Strategies))

	for idx, strat := range result.Strategies {
		confidence := result.Confidence * (1 - float64(idx)*s.config.ConfidenceDecay)
		if confidence < 0 {
			confidence = 0
		}

		action := &model.RecoveryAction{
			ID:                   fmt.Sprintf("%s_%d", result.ErrorID, idx),
			Strategy:             strat,
			Priority:             s.actionPriority(result.Severity, idx),
			Service:              result.Service,
			Category:             result.Category,
			Parameters:           s.Parameters(strat, result.Service),
			Confidence:           confidence,
			EstimatedSuccessRate: s.successRate(strat),
			CreatedAt:            time.Now(),
		}
		actions = append(actions, action)
	}

	s.logger.Debug("Recovery actions selected",
		zap.String("error_id", result.ErrorID),
		zap.Int("count", len(actions)))

	return actions
}

// actionPriority determines the priority for the candidate at the
// given position
func (s *Selector) actionPriority(severity model.Severity, idx int) model.Priority {
	switch severity {
	case model.SeverityCritical:
		return model.PriorityCritical
	case model.SeverityHigh:
		if idx == 0 {
			return model.PriorityHigh
		}
		return model.PriorityMedium
	default:
		if idx == 0 {
			return model.PriorityMedium
		}
		return model.PriorityLow
	}
}

// Parameters returns the fixed parameter template for a strategy
func (s *Selector) Parameters(strat model.RecoveryStrategy, service string) map[string]interface{} {
	switch strat {
	case model.StrategyRetry:
		return map[string]interface{}{
			"max_retries":         3,
			"retry_delay_ms":      1000,
			"exponential_backoff": true,
		}
	case model.StrategyTimeoutIncrease:
		return map[string]interface{}{
			"current_timeout_ms": 5000,
			"new_timeout_ms":     15000,
			"increment_percent":  200,
		}
	case model.StrategyCacheClear:
		return map[string]interface{}{
			"cache_type":    "redis",
			"clear_pattern": "*",
			"graceful":      true,
		}
	case model.StrategyPoolIncrease:
		return map[string]interface{}{
			"resource":          "db_connection_pool",
			"current_size":      10,
			"new_size":          25,
			"increment_percent": 150,
		}
	case model.StrategyResourceScale:
		return map[string]interface{}{
			"resource_type": "cpu",
			"scale_factor":  1.5,
			"auto_scale":    true,
		}
	case model.StrategyCircuitBreak:
		return map[string]interface{}{
			"failure_threshold":  5,
			"timeout_seconds":    60,
			"half_open_requests": 1,
		}
	case model.StrategyFallback:
		return map[string]interface{}{
			"fallback_service": s.fallbackService(service),
			"fallback_mode":    "degraded",
		}
	case model.StrategyQueuePriority:
		return map[string]interface{}{
			"current_priority": "normal",
			"new_priority":     "high",
			"boost_factor":     2,
		}
	case model.StrategyRequestThrottle:
		return map[string]interface{}{
			"requests_per_minute": 100,
			"burst_size":          10,
		}
	case model.StrategyServiceRestart:
		return map[string]interface{}{
			"graceful":        true,
			"timeout_seconds": 30,
			"health_check":    true,
		}
	default:
		return map[string]interface{}{}
	}
}

// successRate returns the fixed success-rate prior for a strategy
func (s *Selector) successRate(strat model.RecoveryStrategy) float64 {
	if rate, ok := s.config.SuccessRates[strat]; ok {
		return rate
	}
	return s.config.DefaultSuccessRate
}

// fallbackService resolves the fallback service for a given service
func (s *Selector) fallbackService(service string) string {
	if fallback, ok := s.config.FallbackServices[service]; ok {
		return fallback
	}
	return s.config.DefaultFallbackService
}
