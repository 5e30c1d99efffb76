package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValues(t *testing.T) {
	ctx := WithActor(WithRequestID(context.Background(), "req-1"), "21CS00001")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "21CS00001", Actor(ctx))
	assert.Empty(t, Actor(context.Background()))
	//nolint:staticcheck // nil context is tolerated
	assert.Empty(t, RequestID(nil))
}
