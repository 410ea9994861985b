package model

import "time"

// RunState represents the pipeline state for a single invocation
type RunState string

const (
	RunStateReceived           RunState = "RECEIVED"
	RunStateClassified         RunState = "CLASSIFIED"
	RunStateStrategiesSelected RunState = "STRATEGIES_SELECTED"
	RunStateExecuting          RunState = "EXECUTING"
	RunStateRecovered          RunState = "RECOVERED"
	RunStateExhausted          RunState = "EXHAUSTED"
	RunStateAlerted            RunState = "ALERTED"
	RunStateDone               RunState = "DONE"
)

// ActionOutcome records one recovery attempt
type ActionOutcome struct {
	ActionID    string                 `json:"action_id"`
	Strategy    RecoveryStrategy       `json:"strategy"`
	AttemptedAt time.Time              `json:"attempted_at"`
	Success     bool                   `json:"success"`
	Message     string                 `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// ExecutionReport summarizes one recovery run over a set of actions
type ExecutionReport struct {
	ErrorID string `json:"error_id"`

	// Executed holds successful attempts, Failed holds failed ones.
	// Both preserve attempt order.
	Executed []ActionOutcome `json:"actions_executed"`
	Failed   []ActionOutcome `json:"actions_failed"`

	// OverallSuccess is true iff at least one action succeeded
	OverallSuccess bool   `json:"recovery_success"`
	Summary        string `json:"recovery_message"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Alert represents a dispatched notification about one recovery run
type Alert struct {
	ID         string    `json:"id"`
	ErrorID    string    `json:"error_id"`
	Service    string    `json:"service"`
	Severity   Severity  `json:"severity"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Recipients []string  `json:"recipients"`
	Recovered  bool      `json:"recovered"`
	CreatedAt  time.Time `json:"created_at"`
}
