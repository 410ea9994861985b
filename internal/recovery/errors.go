package recovery

import "errors"

// ErrNoExecutor indicates that no executor is registered for a strategy
var ErrNoExecutor = errors.New("no executor registered for strategy")
