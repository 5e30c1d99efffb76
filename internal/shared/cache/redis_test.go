package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsync/server/internal/shared/config"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(&config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NoError(t, Close(client))
}

func TestNewRedisClient_Disabled(t *testing.T) {
	client, err := NewRedisClient(&config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.NoError(t, Close(nil))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(&config.RedisConfig{Address: addr})
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	assert.ErrorIs(t, Ping(context.Background(), nil), ErrDisabled)

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(&config.RedisConfig{Address: mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(client) })
	assert.NoError(t, Ping(context.Background(), client))
}
