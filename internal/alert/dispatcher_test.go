package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kael9/remedy/internal/model"
)

type recordedSend struct {
	recipient string
	subject   string
	body      string
}

// fakeChannel records sends and optionally fails every delivery
type fakeChannel struct {
	name  string
	fail  bool
	sends []recordedSend
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(ctx context.Context, recipient, subject, body string, errorData map[string]interface{}) error {
	c.sends = append(c.sends, recordedSend{recipient: recipient, subject: subject, body: body})
	if c.fail {
		return errors.New("delivery refused")
	}
	return nil
}

func newTestDispatcher(t *testing.T, channels ...*fakeChannel) *Dispatcher {
	t.Helper()
	config := Config{
		DefaultRecipients:    []string{"oncall@example.com", "team@example.com"},
		EscalationRecipients: []string{"sre-lead@example.com", "oncall@example.com"},
		SendTimeout:          time.Second,
	}
	d := NewDispatcher(config, zaptest.NewLogger(t))
	for _, ch := range channels {
		d.RegisterChannel(ch)
	}
	return d
}

func testClassification(severity model.Severity) *model.ClassificationResult {
	return &model.ClassificationResult{
		ErrorID:    "err-1",
		Service:    "django",
		Category:   model.CategoryConnection,
		Severity:   severity,
		Timestamp:  time.Now(),
		Confidence: 0.85,
		Priority:   model.PriorityHigh,
	}
}

func testReport(success bool) *model.ExecutionReport {
	report := &model.ExecutionReport{
		ErrorID:        "err-1",
		OverallSuccess: success,
		StartedAt:      time.Now(),
		CompletedAt:    time.Now(),
	}
	if success {
		report.Executed = []model.ActionOutcome{{
			ActionID: "err-1_1",
			Strategy: model.StrategyCircuitBreak,
			Success:  true,
			Message:  "Circuit breaker activated",
		}}
		report.Failed = []model.ActionOutcome{{
			ActionID: "err-1_0",
			Strategy: model.StrategyRetry,
			Error:    "still refusing connections",
		}}
		report.Summary = "Recovery successful: circuit_break"
	} else {
		report.Failed = []model.ActionOutcome{{
			ActionID: "err-1_0",
			Strategy: model.StrategyRetry,
			Error:    "still refusing connections",
		}}
		report.Summary = "Recovery failed: 1 actions exhausted"
	}
	return report
}

func TestDispatcher_SubjectFormat(t *testing.T) {
	email := &fakeChannel{name: "email"}
	d := newTestDispatcher(t, email)

	t.Run("recovered", func(t *testing.T) {
		result := d.Dispatch(context.Background(), testClassification(model.SeverityMedium), testReport(true))
		require.Equal(t, "[DJANGO] ConnectionError - RECOVERED", result.Alert.Subject)
	})

	t.Run("needs attention", func(t *testing.T) {
		result := d.Dispatch(context.Background(), testClassification(model.SeverityMedium), testReport(false))
		require.Equal(t, "[DJANGO] ConnectionError - NEEDS ATTENTION", result.Alert.Subject)
	})
}

func TestDispatcher_RecipientResolution(t *testing.T) {
	d := newTestDispatcher(t)

	t.Run("critical adds escalation without duplicates", func(t *testing.T) {
		recipients := d.Recipients(model.SeverityCritical)
		require.Equal(t, []string{"oncall@example.com", "team@example.com", "sre-lead@example.com"}, recipients)
	})

	t.Run("high adds escalation", func(t *testing.T) {
		recipients := d.Recipients(model.SeverityHigh)
		require.Contains(t, recipients, "sre-lead@example.com")
	})

	t.Run("medium stays on defaults", func(t *testing.T) {
		recipients := d.Recipients(model.SeverityMedium)
		require.Equal(t, []string{"oncall@example.com", "team@example.com"}, recipients)
	})

	t.Run("malformed severity treated as medium", func(t *testing.T) {
		recipients := d.Recipients("catastrophic")
		require.Equal(t, []string{"oncall@example.com", "team@example.com"}, recipients)
	})
}

func TestDispatcher_ChannelSelectionBySeverity(t *testing.T) {
	tests := []struct {
		severity model.Severity
		want     []string
	}{
		{model.SeverityCritical, []string{"email", "slack", "sms", "webhook"}},
		{model.SeverityHigh, []string{"email", "slack"}},
		{model.SeverityMedium, []string{"email"}},
		{model.SeverityLow, []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			channels := map[string]*fakeChannel{
				"email":   {name: "email"},
				"slack":   {name: "slack"},
				"sms":     {name: "sms"},
				"webhook": {name: "webhook"},
			}
			d := newTestDispatcher(t, channels["email"], channels["slack"], channels["sms"], channels["webhook"])

			d.Dispatch(context.Background(), testClassification(tt.severity), testReport(true))

			used := map[string]bool{}
			for _, want := range tt.want {
				used[want] = true
			}
			for name, ch := range channels {
				if used[name] {
					require.NotEmpty(t, ch.sends, "channel %s should have been used", name)
				} else {
					require.Empty(t, ch.sends, "channel %s should not have been used", name)
				}
			}
		})
	}
}

func TestDispatcher_ChannelFailureIsIsolated(t *testing.T) {
	email := &fakeChannel{name: "email", fail: true}
	slack := &fakeChannel{name: "slack"}
	d := newTestDispatcher(t, email, slack)

	result := d.Dispatch(context.Background(), testClassification(model.SeverityHigh), testReport(false))

	// Every channel/recipient pair is attempted despite the email failures
	require.Len(t, email.sends, 3)
	require.Len(t, slack.sends, 3)
	require.True(t, result.Delivered)

	failed := 0
	for _, r := range result.Results {
		if !r.Delivered {
			require.Equal(t, "email", r.Channel)
			require.Equal(t, "delivery refused", r.Error)
			failed++
		}
	}
	require.Equal(t, 3, failed)
}

func TestDispatcher_AllChannelsFail(t *testing.T) {
	email := &fakeChannel{name: "email", fail: true}
	d := newTestDispatcher(t, email)

	result := d.Dispatch(context.Background(), testClassification(model.SeverityLow), testReport(false))

	require.False(t, result.Delivered)
	require.Len(t, result.Results, 2)
}

func TestDispatcher_UnregisteredChannelsSkipped(t *testing.T) {
	// Only email registered; critical asks for slack, sms, webhook too
	email := &fakeChannel{name: "email"}
	d := newTestDispatcher(t, email)

	result := d.Dispatch(context.Background(), testClassification(model.SeverityCritical), testReport(true))

	require.True(t, result.Delivered)
	for _, r := range result.Results {
		require.Equal(t, "email", r.Channel)
	}
}

func TestDispatcher_BodyContents(t *testing.T) {
	email := &fakeChannel{name: "email"}
	d := newTestDispatcher(t, email)

	d.Dispatch(context.Background(), testClassification(model.SeverityHigh), testReport(true))

	require.NotEmpty(t, email.sends)
	body := email.sends[0].body

	require.Contains(t, body, "ERROR ALERT AND RECOVERY REPORT")
	require.Contains(t, body, "- Error ID: err-1")
	require.Contains(t, body, "- Service: django")
	require.Contains(t, body, "- Type: ConnectionError")
	require.Contains(t, body, "- Confidence: 85.0%")
	require.Contains(t, body, "RECOVERY SUCCESSFUL")
	require.Contains(t, body, "circuit_break: Circuit breaker activated")
	require.Contains(t, body, "retry: FAILED - still refusing connections")
	require.Contains(t, body, "Recommended Actions:")
}

func TestDispatcher_AlertMetadata(t *testing.T) {
	email := &fakeChannel{name: "email"}
	d := newTestDispatcher(t, email)

	result := d.Dispatch(context.Background(), testClassification(model.SeverityHigh), testReport(true))

	alert := result.Alert
	require.NotEmpty(t, alert.ID)
	require.Equal(t, "err-1", alert.ErrorID)
	require.Equal(t, "django", alert.Service)
	require.True(t, alert.Recovered)
	require.False(t, alert.CreatedAt.IsZero())
}

func TestDispatcher_NoRecipients(t *testing.T) {
	email := &fakeChannel{name: "email"}
	d := NewDispatcher(Config{SendTimeout: time.Second}, zaptest.NewLogger(t))
	d.RegisterChannel(email)

	result := d.Dispatch(context.Background(), testClassification(model.SeverityHigh), testReport(false))

	require.False(t, result.Delivered)
	require.Empty(t, result.Results)
	require.Empty(t, email.sends)
}
