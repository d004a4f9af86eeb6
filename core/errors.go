package core

import (
	"context"
	"errors"
)

// ErrTimeout is the distinguished failure recorded when a task's capability
// exceeds its timeout. It is wrapped with task detail by the coordinator;
// match with errors.Is or IsTimeout.
var ErrTimeout = errors.New("task execution timed out")

// IsTimeout reports whether err represents a task timeout, either the
// coordinator's own sentinel or a context deadline surfaced by the capability.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
