package failover

import (
	"time"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/pkg/logger"
)

func DefaultConfig() *api.FailoverConfig {
	return &api.FailoverConfig{
		Log: api.LoggerCfg{
			Env: logger.Prod,
		},
		Retry: api.RetryCfg{
			MaxRetries: 15,
			Interval:   2 * time.Second,
		},
		CBreaker: api.CircuitBreakerCfg{
			Enabled:          true,
			FailureThreshold: 6,
			SuccessThreshold: 4,
			ResetTimeout:     5 * time.Second,
		},
		RPCTimeout: 30 * time.Second,
	}
}

func TestsConfig() *api.FailoverConfig {
	return &api.FailoverConfig{
		Log: api.LoggerCfg{
			Env: logger.Dev,
		},
		Retry: api.RetryCfg{
			MaxRetries: 3,
			Interval:   time.Millisecond,
		},
		CBreaker: api.CircuitBreakerCfg{
			Enabled: false,
		},
		RPCTimeout: time.Second,
	}
}
