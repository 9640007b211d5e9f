package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clusterYAML = `
service_id: scm-cluster
nodes:
  - id: scm1
    address: scm1.example.com:9961
  - id: scm2
    address: scm2.example.com:9961
  - id: scm3
    address: scm3.example.com:9961
retry:
  max_retries: 5
  interval: 250ms
rpc_timeout: 10s
log:
  env: dev
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "failover.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	f, err := NewLoader(WithConfigFile(writeConfig(t, clusterYAML))).Load()
	require.NoError(t, err)

	nodes, err := f.Nodes()
	require.NoError(t, err)
	assert.Equal(t, []api.NodeConfig{
		{NodeID: "scm1", ServiceID: "scm-cluster", Address: "scm1.example.com:9961"},
		{NodeID: "scm2", ServiceID: "scm-cluster", Address: "scm2.example.com:9961"},
		{NodeID: "scm3", ServiceID: "scm-cluster", Address: "scm3.example.com:9961"},
	}, nodes)

	cfg, err := f.FailoverConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Interval)
	assert.Equal(t, 10*time.Second, cfg.RPCTimeout)
	assert.Equal(t, logger.Dev, cfg.Log.Env)

	// untouched sections keep their defaults
	assert.True(t, cfg.CBreaker.Enabled)
	assert.Equal(t, 6, cfg.CBreaker.FailureThreshold)
	assert.Equal(t, 5*time.Second, cfg.CBreaker.ResetTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FAILOVER_RETRY_MAX_RETRIES", "7")
	t.Setenv("FAILOVER_RETRY_INTERVAL", "1s")
	t.Setenv("FAILOVER_RPC_TIMEOUT", "3s")
	t.Setenv("FAILOVER_CIRCUIT_BREAKER_ENABLED", "false")
	t.Setenv("FAILOVER_LOG_ENV", "prod")

	f, err := NewLoader(WithConfigFile(writeConfig(t, clusterYAML))).Load()
	require.NoError(t, err)

	cfg, err := f.FailoverConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.Interval)
	assert.Equal(t, 3*time.Second, cfg.RPCTimeout)
	assert.False(t, cfg.CBreaker.Enabled)
	assert.Equal(t, logger.Prod, cfg.Log.Env)
}

func TestLoadMapOverridesFileAndEnv(t *testing.T) {
	t.Setenv("FAILOVER_RETRY_MAX_RETRIES", "7")

	l := NewLoader(WithConfigFile(writeConfig(t, clusterYAML)))
	l.LoadMap(map[string]any{"retry.max_retries": 9})
	f, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 9, f.Retry.MaxRetries)
}

func TestLoadCustomPrefix(t *testing.T) {
	t.Setenv("SCM_RETRY_MAX_RETRIES", "2")

	f, err := NewLoader(WithConfigFile(writeConfig(t, clusterYAML)), WithEnvPrefix("SCM_")).Load()
	require.NoError(t, err)
	assert.Equal(t, 2, f.Retry.MaxRetries)
}

func TestLoadMap(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"service_id": "svc",
		"nodes": []map[string]any{
			{"id": "a", "address": "a:1"},
		},
		"retry.max_retries": 1,
	})

	f, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "svc", f.ServiceID)
	require.Len(t, f.Members, 1)
	assert.Equal(t, "a", f.Members[0].ID)
	assert.Equal(t, 1, f.Retry.MaxRetries)
	assert.Equal(t, "2s", f.Retry.Interval.String(), "defaults fill the rest")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader(WithConfigFile("/nonexistent/failover.yaml")).Load()
		assert.Error(t, err)
	})

	t.Run("missing service id", func(t *testing.T) {
		path := writeConfig(t, "nodes:\n  - id: a\n    address: a:1\n")
		_, err := NewLoader(WithConfigFile(path)).Load()
		var cfgErr *api.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("missing nodes", func(t *testing.T) {
		path := writeConfig(t, "service_id: svc\n")
		_, err := NewLoader(WithConfigFile(path)).Load()
		assert.True(t, errors.Is(err, api.ErrNoNodes))
	})

	t.Run("bad log env", func(t *testing.T) {
		f := &File{ServiceID: "svc", Members: []Node{{ID: "a", Address: "a:1"}}, Log: Log{Env: "qa"}}
		_, err := f.FailoverConfig()
		assert.Error(t, err)
	})

	t.Run("invalid retry", func(t *testing.T) {
		f := &File{ServiceID: "svc", Retry: Retry{MaxRetries: -1}}
		_, err := f.FailoverConfig()
		assert.Error(t, err)
	})
}

func TestFileNodesEmpty(t *testing.T) {
	_, err := (&File{}).Nodes()
	assert.ErrorIs(t, err, api.ErrNoNodes)
}
