package classifier

import (
	"time"

	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

// Config holds the classifier's scoring knobs. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// BaseConfidence is the starting score for every event
	BaseConfidence float64

	// KnownCategoryBonus is added when the category is in the table
	KnownCategoryBonus float64

	// SeverityBonus is added per normalized severity
	SeverityBonus map[model.Severity]float64

	// MaxConfidence caps the final score
	MaxConfidence float64

	// RepeatThreshold is the frequency above which an event counts
	// as a repeated-errors pattern
	RepeatThreshold int
}

// DefaultConfig returns the standard scoring configuration
func DefaultConfig() Config {
	return Config{
		BaseConfidence:     0.5,
		KnownCategoryBonus: 0.2,
		SeverityBonus: map[model.Severity]float64{
			model.SeverityCritical: 0.25,
			model.SeverityHigh:     0.15,
			model.SeverityMedium:   0.05,
			model.SeverityLow:      0.0,
		},
		MaxConfidence:   0.95,
		RepeatThreshold: 3,
	}
}

// Classifier turns raw error events into classification results.
// It is deterministic, has no side effects, and never fails: malformed
// events are classified with defaults instead of rejected.
type Classifier struct {
	logger *zap.Logger
	config Config
}

// New creates a classifier with the given configuration
func New(config Config, logger *zap.Logger) *Classifier {
	return &Classifier{
		logger: logger.Named("classifier"),
		config: config,
	}
}

// Classify analyzes an error event and returns its classification
func (c *Classifier) Classify(event *model.ErrorEvent) *model.ClassificationResult {
	strategies, known := StrategiesFor(event.Category)
	pattern, priority := c.detectPattern(event)
	confidence := c.confidence(event, known)

	result := &model.ClassificationResult{
		ErrorID:       event.ID,
		Service:       event.Service,
		Category:      event.Category,
		Severity:      event.Severity.Normalize(),
		Timestamp:     event.Timestamp,
		Strategies:    strategies,
		Pattern:       pattern,
		Confidence:    confidence,
		Priority:      priority,
		KnownCategory: known,
		AnalyzedAt:    time.Now(),
	}

	c.logger.Debug("Error classified",
		zap.String("error_id", event.ID),
		zap.String("category", string(event.Category)),
		zap.String("pattern", string(pattern)),
		zap.Float64("confidence", confidence),
		zap.String("priority", priority.String()))

	return result
}

// StrategiesFor returns the ordered candidate strategies for a category
// and whether the category is a known one. Unknown categories fall back
// to retry then fallback.
func StrategiesFor(category model.ErrorCategory) ([]model.RecoveryStrategy, bool) {
	switch category {
	case model.CategoryDatabase:
		return []model.RecoveryStrategy{
			model.StrategyPoolIncrease,
			model.StrategyTimeoutIncrease,
			model.StrategyCacheClear,
		}, true
	case model.CategoryTimeout:
		return []model.RecoveryStrategy{
			model.StrategyTimeoutIncrease,
			model.StrategyResourceScale,
			model.StrategyCacheClear,
		}, true
	case model.CategoryMemory:
		return []model.RecoveryStrategy{
			model.StrategyResourceScale,
			model.StrategyCacheClear,
			model.StrategyQueuePriority,
		}, true
	case model.CategoryConnection:
		return []model.RecoveryStrategy{
			model.StrategyRetry,
			model.StrategyCircuitBreak,
			model.StrategyFallback,
		}, true
	case model.CategoryValidation:
		return []model.RecoveryStrategy{
			model.StrategyFallback,
			model.StrategyRequestThrottle,
		}, true
	case model.CategoryAuthentication:
		return []model.RecoveryStrategy{
			model.StrategyRetry,
			model.StrategyRequestThrottle,
		}, true
	case model.CategoryAPI:
		return []model.RecoveryStrategy{
			model.StrategyRetry,
			model.StrategyTimeoutIncrease,
			model.StrategyFallback,
		}, true
	case model.CategoryServiceUnavailable:
		return []model.RecoveryStrategy{
			model.StrategyRetry,
			model.StrategyCircuitBreak,
			model.StrategyServiceRestart,
		}, true
	default:
		return []model.RecoveryStrategy{
			model.StrategyRetry,
			model.StrategyFallback,
		}, false
	}
}

// detectPattern detects error patterns from severity and frequency
func (c *Classifier) detectPattern(event *model.ErrorEvent) (model.Pattern, model.Priority) {
	if event.Severity.Normalize() == model.SeverityCritical {
		return model.PatternCriticalError, model.PriorityCritical
	}
	if event.Frequency > c.config.RepeatThreshold {
		return model.PatternRepeatedErrors, model.PriorityHigh
	}
	return "", model.PriorityMedium
}

// confidence computes the classification confidence score in [0,1]
func (c *Classifier) confidence(event *model.ErrorEvent, known bool) float64 {
	confidence := c.config.BaseConfidence

	if known {
		confidence += c.config.KnownCategoryBonus
	}

	confidence += c.config.SeverityBonus[event.Severity.Normalize()]

	if confidence > c.config.MaxConfidence {
		return c.config.MaxConfidence
	}
	return confidence
}
