package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

// Config defines configuration for the alert dispatcher
type Config struct {
	// DefaultRecipients receive every alert
	DefaultRecipients []string

	// EscalationRecipients are added for critical and high severity
	EscalationRecipients []string

	// SendTimeout bounds each channel call
	SendTimeout time.Duration
}

// DefaultConfig returns the standard dispatcher configuration
func DefaultConfig() Config {
	return Config{
		DefaultRecipients: []string{"oncall@example.com"},
		SendTimeout:       5 * time.Second,
	}
}

// ChannelResult records the delivery outcome for one channel/recipient pair
type ChannelResult struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// DispatchResult summarizes one alert fan-out
type DispatchResult struct {
	Alert   *model.Alert    `json:"alert"`
	Results []ChannelResult `json:"results"`

	// Delivered is true when at least one channel accepted the alert
	Delivered bool `json:"delivered"`
}

// Dispatcher formats recovery reports into human-readable alerts and
// fans them out over the registered notification channels. A channel
// failure is recorded and logged, never raised to the caller.
type Dispatcher struct {
	logger   *zap.Logger
	config   Config
	channels map[string]Channel
}

// NewDispatcher creates an alert dispatcher
func NewDispatcher(config Config, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger.Named("alert-dispatcher"),
		config:   config,
		channels: make(map[string]Channel),
	}
}

// RegisterChannel adds a notification channel
func (d *Dispatcher) RegisterChannel(channel Channel) {
	d.channels[channel.Name()] = channel
}

// Dispatch sends a report of the classification and execution outcome
// to the resolved recipients over the severity-selected channels
func (d *Dispatcher) Dispatch(ctx context.Context, classification *model.ClassificationResult, report *model.ExecutionReport) *DispatchResult {
	alert := &model.Alert{
		ID:         uuid.New().String(),
		ErrorID:    classification.ErrorID,
		Service:    classification.Service,
		Severity:   classification.Severity,
		Subject:    d.subject(classification, report),
		Body:       d.body(classification, report),
		Recipients: d.Recipients(classification.Severity),
		Recovered:  report.OverallSuccess,
		CreatedAt:  time.Now(),
	}

	result := &DispatchResult{Alert: alert}

	if len(alert.Recipients) == 0 {
		d.logger.Warn("No recipients configured for alert",
			zap.String("error_id", alert.ErrorID))
		return result
	}

	for _, name := range d.channelsFor(classification.Severity) {
		channel, ok := d.channels[name]
		if !ok {
			continue
		}

		for _, recipient := range alert.Recipients {
			outcome := ChannelResult{Channel: name, Recipient: recipient}

			sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
			err := channel.Send(sendCtx, recipient, alert.Subject, alert.Body, d.errorData(classification))
			cancel()

			if err != nil {
				outcome.Error = err.Error()
				d.logger.Error("Failed to send alert",
					zap.String("channel", name),
					zap.String("recipient", recipient),
					zap.Error(err))
			} else {
				outcome.Delivered = true
				result.Delivered = true
			}

			result.Results = append(result.Results, outcome)
		}
	}

	if !result.Delivered {
		d.logger.Warn("Alert dispatch failed on every channel",
			zap.String("error_id", alert.ErrorID))
	}

	return result
}

// Recipients resolves the recipient list for a severity. Escalation
// recipients are appended for critical and high severity, duplicates
// removed, original order preserved.
func (d *Dispatcher) Recipients(severity model.Severity) []string {
	recipients := make([]string, 0, len(d.config.DefaultRecipients)+len(d.config.EscalationRecipients))
	seen := make(map[string]struct{})

	add := func(list []string) {
		for _, r := range list {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			recipients = append(recipients, r)
		}
	}

	add(d.config.DefaultRecipients)

	severity = severity.Normalize()
	if severity == model.SeverityCritical || severity == model.SeverityHigh {
		add(d.config.EscalationRecipients)
	}

	return recipients
}

// channelsFor selects transports by severity: critical pages every
// channel, high adds chat to email, everything else is email only
func (d *Dispatcher) channelsFor(severity model.Severity) []string {
	switch severity.Normalize() {
	case model.SeverityCritical:
		return []string{"email", "slack", "sms", "webhook"}
	case model.SeverityHigh:
		return []string{"email", "slack"}
	default:
		return []string{"email"}
	}
}

// subject builds the alert subject line
func (d *Dispatcher) subject(classification *model.ClassificationResult, report *model.ExecutionReport) string {
	status := "NEEDS ATTENTION"
	if report.OverallSuccess {
		status = "RECOVERED"
	}
	return fmt.Sprintf("[%s] %s - %s",
		strings.ToUpper(classification.Service),
		classification.Category,
		status)
}

// body builds the structured alert text
func (d *Dispatcher) body(classification *model.ClassificationResult, report *model.ExecutionReport) string {
	var b strings.Builder

	b.WriteString("ERROR ALERT AND RECOVERY REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("Error Details:\n")
	fmt.Fprintf(&b, "- Error ID: %s\n", classification.ErrorID)
	fmt.Fprintf(&b, "- Service: %s\n", classification.Service)
	fmt.Fprintf(&b, "- Type: %s\n", classification.Category)
	fmt.Fprintf(&b, "- Severity: %s\n", classification.Severity)
	fmt.Fprintf(&b, "- Timestamp: %s\n\n", classification.Timestamp.Format(time.RFC3339))

	b.WriteString("Analysis:\n")
	fmt.Fprintf(&b, "- Confidence: %.1f%%\n", classification.Confidence*100)
	pattern := "None"
	if classification.Pattern != "" {
		pattern = string(classification.Pattern)
	}
	fmt.Fprintf(&b, "- Pattern Match: %s\n", pattern)
	fmt.Fprintf(&b, "- Priority: %s\n\n", classification.Priority)

	b.WriteString("Recovery Actions:\n")
	if report.OverallSuccess {
		b.WriteString("RECOVERY SUCCESSFUL\n")
	} else {
		b.WriteString("RECOVERY ATTEMPTED\n")
	}
	for _, action := range report.Executed {
		fmt.Fprintf(&b, "  - %s: %s\n", action.Strategy, action.Message)
	}
	for _, action := range report.Failed {
		reason := action.Error
		if reason == "" {
			reason = "Unknown error"
		}
		fmt.Fprintf(&b, "  - %s: FAILED - %s\n", action.Strategy, reason)
	}

	b.WriteString("\nRecommended Actions:\n")
	b.WriteString("- Monitor error frequency\n")
	b.WriteString("- Check service logs\n")
	b.WriteString("- Investigate underlying cause\n")

	return b.String()
}

// errorData builds the structured context passed to channels
func (d *Dispatcher) errorData(classification *model.ClassificationResult) map[string]interface{} {
	return map[string]interface{}{
		"error_id":  classification.ErrorID,
		"service":   classification.Service,
		"category":  string(classification.Category),
		"severity":  string(classification.Severity),
		"timestamp": classification.Timestamp.Format(time.RFC3339),
	}
}
