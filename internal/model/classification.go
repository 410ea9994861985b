package model

import "time"

// Pattern represents a detected meta-signal influencing priority
// beyond raw severity
type Pattern string

const (
	PatternCriticalError  Pattern = "critical_error"
	PatternRepeatedErrors Pattern = "repeated_errors"
)

// ClassificationResult represents the classifier's verdict for one event.
// It is derived state and never persisted on its own.
type ClassificationResult struct {
	ErrorID   string        `json:"error_id"`
	Service   string        `json:"service"`
	Category  ErrorCategory `json:"category"`
	Severity  Severity      `json:"severity"`
	Timestamp time.Time     `json:"timestamp"`

	// Strategies is the ordered candidate list from the category table
	Strategies []RecoveryStrategy `json:"strategies"`

	// Pattern is empty when no pattern was detected
	Pattern Pattern `json:"pattern,omitempty"`

	// Confidence is the overall classification confidence in [0,1]
	Confidence float64 `json:"confidence"`

	// Priority is the recommended execution priority
	Priority Priority `json:"priority"`

	// KnownCategory reports whether the category was found in the table
	KnownCategory bool `json:"known_category"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}
