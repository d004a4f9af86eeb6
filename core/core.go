package core

import "context"

// TaskFunc is the typed capability bound to an (agent, method) pair. The
// coordinator invokes it with the task's positional and keyword arguments and
// captures the returned value or error into a TaskResult. Implementations
// must respect ctx cancellation; the coordinator derives a deadline from the
// task's timeout.
type TaskFunc func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// MessageHandler is the generic delivery contract an agent exposes to receive
// bus messages. The returned value resolves a pending request when the
// message carries a matching correlation id; for fire-and-forget messages it
// is discarded.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *Message) (any, error)
}

// HandlerFunc adapts a plain function to the MessageHandler interface and is
// also the shape of type-specific handler overrides registered on the bus.
type HandlerFunc func(ctx context.Context, msg *Message) (any, error)

// HandleMessage implements MessageHandler.
func (f HandlerFunc) HandleMessage(ctx context.Context, msg *Message) (any, error) {
	return f(ctx, msg)
}
