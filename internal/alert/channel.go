package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/kael9/remedy/internal/model"
)

// Channel represents a transport for alert notifications
type Channel interface {
	// Name identifies the channel for selection and reporting
	Name() string

	// Send delivers one notification to one recipient
	Send(ctx context.Context, recipient, subject, body string, errorData map[string]interface{}) error
}

// EmailConfig holds SMTP settings for the email channel
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailChannel delivers alerts over SMTP
type EmailChannel struct {
	logger *zap.Logger
	config EmailConfig
}

// NewEmailChannel creates an email notification channel
func NewEmailChannel(config EmailConfig, logger *zap.Logger) *EmailChannel {
	return &EmailChannel{
		logger: logger.Named("email-channel"),
		config: config,
	}
}

// Name implements Channel
func (c *EmailChannel) Name() string { return "email" }

// Send implements Channel
func (c *EmailChannel) Send(ctx context.Context, recipient, subject, body string, errorData map[string]interface{}) error {
	auth := smtp.PlainAuth("",
		c.config.Username,
		c.config.Password,
		c.config.Host)

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n",
		c.config.From,
		recipient,
		subject,
		body)

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	if err := smtp.SendMail(addr, auth, c.config.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}

	c.logger.Info("Email alert sent", zap.String("recipient", recipient))
	return nil
}

// SlackChannel delivers alerts to a Slack incoming webhook
type SlackChannel struct {
	logger     *zap.Logger
	webhookURL string
	httpClient *http.Client
}

// NewSlackChannel creates a Slack notification channel
func NewSlackChannel(webhookURL string, logger *zap.Logger) *SlackChannel {
	return &SlackChannel{
		logger:     logger.Named("slack-channel"),
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Channel
func (c *SlackChannel) Name() string { return "slack" }

// severityColors maps severities to Slack attachment colors
var severityColors = map[model.Severity]string{
	model.SeverityCritical: "#FF0000",
	model.SeverityHigh:     "#FF6600",
	model.SeverityMedium:   "#FFCC00",
	model.SeverityLow:      "#0066CC",
}

// Send implements Channel
func (c *SlackChannel) Send(ctx context.Context, recipient, subject, body string, errorData map[string]interface{}) error {
	if c.webhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	severity, _ := errorData["severity"].(string)
	color, ok := severityColors[model.Severity(severity)]
	if !ok {
		color = "#808080"
	}

	payload := map[string]interface{}{
		"channel": recipient,
		"text":    subject,
		"attachments": []map[string]interface{}{
			{
				"color": color,
				"text":  body,
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	c.logger.Info("Slack alert sent", zap.String("recipient", recipient))
	return nil
}

// WebhookChannel posts alerts as JSON to arbitrary HTTP endpoints
type WebhookChannel struct {
	logger     *zap.Logger
	url        string
	httpClient *http.Client
}

// NewWebhookChannel creates a generic webhook notification channel
func NewWebhookChannel(url string, logger *zap.Logger) *WebhookChannel {
	return &WebhookChannel{
		logger:     logger.Named("webhook-channel"),
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Channel
func (c *WebhookChannel) Name() string { return "webhook" }

// Send implements Channel
func (c *WebhookChannel) Send(ctx context.Context, recipient, subject, body string, errorData map[string]interface{}) error {
	if c.url == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	payload := map[string]interface{}{
		"recipient": recipient,
		"subject":   subject,
		"message":   body,
		"error":     errorData,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.logger.Info("Webhook alert sent", zap.String("url", c.url))
	return nil
}

// SMSChannel is a placeholder for an SMS provider integration
type SMSChannel struct {
	logger *zap.Logger
}

// NewSMSChannel creates an SMS notification channel
func NewSMSChannel(logger *zap.Logger) *SMSChannel {
	return &SMSChannel{logger: logger.Named("sms-channel")}
}

// Name implements Channel
func (c *SMSChannel) Name() string { return "sms" }

// Send implements Channel
func (c *SMSChannel) Send(ctx context.Context, recipient, subject, body string, errorData map[string]interface{}) error {
	// TODO: Implement SMS sending using a provider (e.g., Twilio)
	return fmt.Errorf("SMS notifications not implemented")
}
