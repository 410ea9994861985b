package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kael9/remedy/internal/model"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return New(DefaultConfig(), zaptest.NewLogger(t))
}

func TestClassifier_CriticalSeverity(t *testing.T) {
	c := newTestClassifier(t)

	event := &model.ErrorEvent{
		ID:        "err-1",
		Service:   "django",
		Category:  model.CategoryDatabase,
		Severity:  model.SeverityCritical,
		Timestamp: time.Now(),
		Frequency: 1,
	}

	result := c.Classify(event)

	require.Equal(t, model.PriorityCritical, result.Priority)
	require.Equal(t, model.PatternCriticalError, result.Pattern)
	require.GreaterOrEqual(t, result.Confidence, 0.75)
	require.LessOrEqual(t, result.Confidence, 0.95)
}

func TestClassifier_CategoryTables(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		category model.ErrorCategory
		want     []model.RecoveryStrategy
	}{
		{model.CategoryDatabase, []model.RecoveryStrategy{
			model.StrategyPoolIncrease, model.StrategyTimeoutIncrease, model.StrategyCacheClear,
		}},
		{model.CategoryTimeout, []model.RecoveryStrategy{
			model.StrategyTimeoutIncrease, model.StrategyResourceScale, model.StrategyCacheClear,
		}},
		{model.CategoryMemory, []model.RecoveryStrategy{
			model.StrategyResourceScale, model.StrategyCacheClear, model.StrategyQueuePriority,
		}},
		{model.CategoryConnection, []model.RecoveryStrategy{
			model.StrategyRetry, model.StrategyCircuitBreak, model.StrategyFallback,
		}},
		{model.CategoryValidation, []model.RecoveryStrategy{
			model.StrategyFallback, model.StrategyRequestThrottle,
		}},
		{model.CategoryAuthentication, []model.RecoveryStrategy{
			model.StrategyRetry, model.StrategyRequestThrottle,
		}},
		{model.CategoryAPI, []model.RecoveryStrategy{
			model.StrategyRetry, model.StrategyTimeoutIncrease, model.StrategyFallback,
		}},
		{model.CategoryServiceUnavailable, []model.RecoveryStrategy{
			model.StrategyRetry, model.StrategyCircuitBreak, model.StrategyServiceRestart,
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			event := &model.ErrorEvent{
				ID:       "err-1",
				Service:  "django",
				Category: tt.category,
				Severity: model.SeverityMedium,
			}

			result := c.Classify(event)
			require.Equal(t, tt.want, result.Strategies)
			require.True(t, result.KnownCategory)
		})
	}
}

func TestClassifier_UnknownCategory(t *testing.T) {
	c := newTestClassifier(t)

	event := &model.ErrorEvent{
		ID:       "err-1",
		Service:  "laravel",
		Category: "UnknownType",
		Severity: model.SeverityLow,
	}

	result := c.Classify(event)

	require.Equal(t, []model.RecoveryStrategy{model.StrategyRetry, model.StrategyFallback}, result.Strategies)
	require.False(t, result.KnownCategory)

	// No known-category bonus and no severity bonus for low
	require.InDelta(t, 0.5, result.Confidence, 1e-9)
	require.Equal(t, model.PriorityMedium, result.Priority)
	require.Empty(t, result.Pattern)
}

func TestClassifier_ConfidenceScoring(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name     string
		category model.ErrorCategory
		severity model.Severity
		want     float64
	}{
		{"known critical", model.CategoryDatabase, model.SeverityCritical, 0.95},
		{"known high", model.CategoryDatabase, model.SeverityHigh, 0.85},
		{"known medium", model.CategoryDatabase, model.SeverityMedium, 0.75},
		{"known low", model.CategoryDatabase, model.SeverityLow, 0.70},
		{"unknown critical", "Mystery", model.SeverityCritical, 0.75},
		{"unknown low", "Mystery", model.SeverityLow, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(&model.ErrorEvent{
				ID:       "err-1",
				Category: tt.category,
				Severity: tt.severity,
			})
			require.InDelta(t, tt.want, result.Confidence, 1e-9)
		})
	}
}

func TestClassifier_RepeatedErrorsPattern(t *testing.T) {
	c := newTestClassifier(t)

	event := &model.ErrorEvent{
		ID:        "err-1",
		Service:   "django",
		Category:  model.CategoryAPI,
		Severity:  model.SeverityMedium,
		Frequency: 4,
	}

	result := c.Classify(event)

	require.Equal(t, model.PatternRepeatedErrors, result.Pattern)
	require.Equal(t, model.PriorityHigh, result.Priority)
}

func TestClassifier_MalformedSeverityDefaultsToMedium(t *testing.T) {
	c := newTestClassifier(t)

	event := &model.ErrorEvent{
		ID:       "err-1",
		Category: model.CategoryDatabase,
		Severity: "catastrophic",
	}

	result := c.Classify(event)

	require.Equal(t, model.SeverityMedium, result.Severity)
	// Medium severity bonus applies: 0.5 + 0.2 + 0.05
	require.InDelta(t, 0.75, result.Confidence, 1e-9)
	require.Equal(t, model.PriorityMedium, result.Priority)
}

func TestClassifier_Deterministic(t *testing.T) {
	c := newTestClassifier(t)

	event := &model.ErrorEvent{
		ID:        "err-1",
		Service:   "django",
		Category:  model.CategoryConnection,
		Severity:  model.SeverityHigh,
		Frequency: 2,
	}

	first := c.Classify(event)
	second := c.Classify(event)

	require.Equal(t, first.Strategies, second.Strategies)
	require.Equal(t, first.Confidence, second.Confidence)
	require.Equal(t, first.Priority, second.Priority)
	require.Equal(t, first.Pattern, second.Pattern)
}
