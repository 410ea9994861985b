package model

import (
	"time"
)

// Severity represents the urgency tier of an error event
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Normalize maps unknown or malformed severities to medium treatment
func (s Severity) Normalize() Severity {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return s
	default:
		return SeverityMedium
	}
}

// ErrorCategory represents the type of a reported error
type ErrorCategory string

const (
	CategoryDatabase           ErrorCategory = "DatabaseError"
	CategoryTimeout            ErrorCategory = "TimeoutError"
	CategoryMemory             ErrorCategory = "MemoryError"
	CategoryConnection         ErrorCategory = "ConnectionError"
	CategoryValidation         ErrorCategory = "ValidationError"
	CategoryAuthentication     ErrorCategory = "AuthenticationError"
	CategoryAPI                ErrorCategory = "APIError"
	CategoryServiceUnavailable ErrorCategory = "ServiceUnavailableError"
)

// ErrorEvent represents a single reported failure
type ErrorEvent struct {
	ID        string        `json:"id"`
	Service   string        `json:"service"`
	Category  ErrorCategory `json:"category"`
	Message   string        `json:"message"`
	Severity  Severity      `json:"severity"`
	Timestamp time.Time     `json:"timestamp"`

	// Frequency is the number of occurrences observed in the current window
	Frequency int `json:"frequency"`

	// Context carries arbitrary structured data captured at the error site
	Context map[string]interface{} `json:"context,omitempty"`

	// Resolution tracking
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
}
