package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	context_ "github.com/apiarian/village/internal/infra/context"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, ok := context_.TraceIDFromContext(ctx)
	assert.False(t, ok)

	ctx = context_.WithNewTraceID(ctx)
	first, ok := context_.TraceIDFromContext(ctx)
	assert.True(t, ok)
	assert.NotEmpty(t, first)

	// an existing trace id is kept
	ctx = context_.WithNewTraceID(ctx)
	second, _ := context_.TraceIDFromContext(ctx)
	assert.Equal(t, first, second)
}

func TestActor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, ok := context_.ActorFromContext(ctx)
	assert.False(t, ok)

	actor, ok := context_.ActorFromContext(context_.WithActor(ctx, "alice"))
	assert.True(t, ok)
	assert.Equal(t, "alice", actor)

	_, ok = context_.ActorFromContext(context_.WithActor(ctx, ""))
	assert.False(t, ok)
}
