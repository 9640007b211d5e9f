package api

import (
	"errors"
	"time"

	"github.com/shrtyk/raft-failover/pkg/logger"
)

type FailoverConfig struct {
	Log      LoggerCfg
	Retry    RetryCfg
	CBreaker CircuitBreakerCfg
	// RPCTimeout bounds a single attempt. Zero disables the bound.
	RPCTimeout time.Duration
}

type LoggerCfg struct {
	Env logger.Enviroment
}

type RetryCfg struct {
	// MaxRetries bounds both same-node retries and failovers of one call.
	MaxRetries int
	// Interval is the delay before every retry.
	Interval time.Duration
}

type CircuitBreakerCfg struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration
}

func (c *FailoverConfig) Validate() error {
	var err error
	if c.Retry.MaxRetries < 0 {
		err = errors.Join(err, errors.New("retry.max_retries must not be negative"))
	}
	if c.Retry.Interval < 0 {
		err = errors.Join(err, errors.New("retry.interval must not be negative"))
	}
	if c.RPCTimeout < 0 {
		err = errors.Join(err, errors.New("rpc_timeout must not be negative"))
	}
	if c.CBreaker.Enabled {
		if c.CBreaker.FailureThreshold < 1 || c.CBreaker.SuccessThreshold < 1 {
			err = errors.Join(err, errors.New("circuit breaker thresholds must be positive"))
		}
	}
	return err
}
