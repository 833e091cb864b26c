package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/mission-service/internal/config"
)

func TestNewRedisWithoutAddr(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	assert.Nil(t, r.Client)
	require.Error(t, r.Ping(context.Background()))
	r.Close()
}

func TestPostgresWithoutPool(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	require.Error(t, pg.Ping(context.Background()))
	pg.Close()
}
