package model

import "time"

// RecoveryStrategy represents a named remediation archetype
type RecoveryStrategy string

const (
	StrategyRetry           RecoveryStrategy = "retry"
	StrategyTimeoutIncrease RecoveryStrategy = "timeout_increase"
	StrategyCacheClear      RecoveryStrategy = "cache_clear"
	StrategyPoolIncrease    RecoveryStrategy = "pool_increase"
	StrategyResourceScale   RecoveryStrategy = "resource_scale"
	StrategyCircuitBreak    RecoveryStrategy = "circuit_break"
	StrategyFallback        RecoveryStrategy = "fallback"
	StrategyQueuePriority   RecoveryStrategy = "queue_priority"
	StrategyRequestThrottle RecoveryStrategy = "request_throttle"
	StrategyServiceRestart  RecoveryStrategy = "service_restart"
)

// Strategies lists every known recovery strategy
func Strategies() []RecoveryStrategy {
	return []RecoveryStrategy{
		StrategyRetry,
		StrategyTimeoutIncrease,
		StrategyCacheClear,
		StrategyPoolIncrease,
		StrategyResourceScale,
		StrategyCircuitBreak,
		StrategyFallback,
		StrategyQueuePriority,
		StrategyRequestThrottle,
		StrategyServiceRestart,
	}
}

// Priority represents the execution priority of a recovery action.
// Lower rank executes first.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
)

// String returns the priority name
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return "LOW"
	}
}

// ExecutionResult represents the outcome reported by a strategy executor
type ExecutionResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecoveryAction represents one candidate application of a strategy
// to a specific error event
type RecoveryAction struct {
	ID       string           `json:"id"`
	Strategy RecoveryStrategy `json:"strategy"`
	Priority Priority         `json:"priority"`
	Service  string           `json:"service"`
	Category ErrorCategory    `json:"category"`

	// Parameters is the strategy-specific parameter set
	Parameters map[string]interface{} `json:"parameters"`

	// Confidence is the classifier confidence scaled by candidate position
	Confidence float64 `json:"confidence"`

	// EstimatedSuccessRate is a fixed prior per strategy
	EstimatedSuccessRate float64 `json:"estimated_success_rate"`

	CreatedAt time.Time        `json:"created_at"`
	Executed  bool             `json:"executed"`
	Result    *ExecutionResult `json:"result,omitempty"`
}
