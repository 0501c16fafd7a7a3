package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoolConfig_Defaults(t *testing.T) {
	c, err := ParsePoolConfig("postgres://advisor@localhost:5432/advisor", PoolConfig{})
	require.NoError(t, err)
	assert.Equal(t, int32(10), c.MaxConns)
	assert.Equal(t, int32(1), c.MinConns)
	assert.Equal(t, 30*time.Minute, c.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, c.MaxConnIdleTime)
}

func TestParsePoolConfig_Overrides(t *testing.T) {
	c, err := ParsePoolConfig("postgres://advisor@localhost:5432/advisor", PoolConfig{MaxConns: 4, MinConns: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(4), c.MaxConns)
	assert.Equal(t, int32(2), c.MinConns)
}

func TestParsePoolConfig_NoConnectHooks(t *testing.T) {
	// New connections must not touch knowledge_answers, which only exists
	// after Migrate runs.
	c, err := ParsePoolConfig("postgres://advisor@localhost:5432/advisor", PoolConfig{})
	require.NoError(t, err)
	assert.Nil(t, c.AfterConnect)
	assert.Nil(t, c.PrepareConn)
}

func TestParsePoolConfig_Invalid(t *testing.T) {
	_, err := ParsePoolConfig("postgres://%zz", PoolConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: parse config")
}
