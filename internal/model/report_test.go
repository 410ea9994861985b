package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityNormalize(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityCritical.Normalize())
	assert.Equal(t, SeverityLow, SeverityLow.Normalize())
	assert.Equal(t, SeverityMedium, Severity("catastrophic").Normalize())
	assert.Equal(t, SeverityMedium, Severity("").Normalize())
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "CRITICAL", PriorityCritical.String())
	assert.Equal(t, "HIGH", PriorityHigh.String())
	assert.Equal(t, "MEDIUM", PriorityMedium.String())
	assert.Equal(t, "LOW", PriorityLow.String())
	assert.Equal(t, "LOW", Priority(42).String())
}

func TestPriorityRankOrder(t *testing.T) {
	assert.Less(t, int(PriorityCritical), int(PriorityHigh))
	assert.Less(t, int(PriorityHigh), int(PriorityMedium))
	assert.Less(t, int(PriorityMedium), int(PriorityLow))
}

func TestExecutionReportJSON(t *testing.T) {
	report := &ExecutionReport{
		ErrorID: "err-1",
		Executed: []ActionOutcome{
			{ActionID: "err-1_1", Strategy: StrategyCircuitBreak, Success: true, Message: "Circuit breaker activated"},
		},
		Failed: []ActionOutcome{
			{ActionID: "err-1_0", Strategy: StrategyRetry, Error: "connection refused"},
		},
		OverallSuccess: true,
		Summary:        "Recovery successful: circuit_break",
		StartedAt:      time.Now().Truncate(time.Second),
		CompletedAt:    time.Now().Truncate(time.Second),
	}

	data, err := json.Marshal(report)
	require.NoError(t, err)

	// Wire field names are part of the reporting contract
	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Contains(t, wire, "actions_executed")
	assert.Contains(t, wire, "actions_failed")
	assert.Contains(t, wire, "recovery_success")
	assert.Contains(t, wire, "recovery_message")

	var decoded ExecutionReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.ErrorID, decoded.ErrorID)
	assert.True(t, decoded.OverallSuccess)
	require.Len(t, decoded.Executed, 1)
	require.Len(t, decoded.Failed, 1)
	assert.Equal(t, StrategyCircuitBreak, decoded.Executed[0].Strategy)
	assert.Equal(t, "connection refused", decoded.Failed[0].Error)
}

func TestErrorEventJSON(t *testing.T) {
	event := &ErrorEvent{
		ID:        "err-1",
		Service:   "django",
		Category:  CategoryConnection,
		Message:   "Connection refused",
		Severity:  SeverityHigh,
		Timestamp: time.Now().Truncate(time.Second),
		Frequency: 2,
		Context:   map[string]interface{}{"endpoint": "/api/v1/users"},
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded ErrorEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, CategoryConnection, decoded.Category)
	assert.Equal(t, SeverityHigh, decoded.Severity)
	assert.Equal(t, 2, decoded.Frequency)
	assert.Equal(t, "/api/v1/users", decoded.Context["endpoint"])
	assert.Nil(t, decoded.ResolvedAt)
}
