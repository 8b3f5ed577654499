package context

import (
	"context"
)

const contextKeyActor = contextKey("actor")

// ActorFromContext extracts the name of whoever initiated the current operation.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(contextKeyActor).(string)

	return actor, ok && actor != ""
}

// WithActor returns a context naming the initiator of the operation,
// e.g. the logged-in username or an admin tool.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, contextKeyActor, actor)
}
