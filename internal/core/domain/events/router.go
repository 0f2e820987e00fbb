package events

import (
	"context"
	"log/slog"
	"sort"
)

// Handler processes one event. A nil error acknowledges it.
type Handler func(ctx context.Context, event Event) error

// Router dispatches events to the handler registered for their type.
// Events of an unregistered type are logged and acknowledged.
type Router struct {
	handlers map[Type]Handler
	logger   *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		handlers: make(map[Type]Handler),
		logger:   logger,
	}
}

// On registers h for t, replacing any previous handler.
func (r *Router) On(t Type, h Handler) *Router {
	r.handlers[t] = h
	return r
}

// Types lists the registered types, sorted.
func (r *Router) Types() []Type {
	types := make([]Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (r *Router) Handle(ctx context.Context, event Event) error {
	if err := event.Type.Validate(); err != nil {
		r.logger.WarnContext(ctx, "unknown event type acknowledged",
			"event_id", event.ID, "type", event.Type.String(), "error", err)
		return nil
	}

	h, ok := r.handlers[event.Type]
	if !ok {
		r.logger.DebugContext(ctx, "no handler for event type",
			"event_id", event.ID, "type", event.Type.String(), "topic", event.Topic.String())
		return nil
	}

	return h(ctx, event)
}
