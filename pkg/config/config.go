// Package config loads the cluster node list and failover settings.
//
// Sources are applied in order, later ones overriding earlier ones:
// defaults, a YAML file, then environment variables with the FAILOVER_
// prefix (FAILOVER_RETRY_MAX_RETRIES -> retry.max_retries).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/failover"
	"github.com/shrtyk/raft-failover/pkg/logger"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "FAILOVER_"

var _ api.NodeSource = (*File)(nil)

// File is the on-disk client configuration.
type File struct {
	ServiceID  string        `koanf:"service_id"`
	Members    []Node        `koanf:"nodes"`
	Retry      Retry         `koanf:"retry"`
	CBreaker   CBreaker      `koanf:"circuit_breaker"`
	RPCTimeout time.Duration `koanf:"rpc_timeout"`
	Log        Log           `koanf:"log"`
}

type Node struct {
	ID      string `koanf:"id"`
	Address string `koanf:"address"`
}

type Retry struct {
	MaxRetries int           `koanf:"max_retries"`
	Interval   time.Duration `koanf:"interval"`
}

type CBreaker struct {
	Enabled          bool          `koanf:"enabled"`
	FailureThreshold int           `koanf:"failure_threshold"`
	SuccessThreshold int           `koanf:"success_threshold"`
	ResetTimeout     time.Duration `koanf:"reset_timeout"`
}

type Log struct {
	Env string `koanf:"env"`
}

// Nodes returns the configured nodes in file order.
func (f *File) Nodes() ([]api.NodeConfig, error) {
	if len(f.Members) == 0 {
		return nil, api.ErrNoNodes
	}
	out := make([]api.NodeConfig, 0, len(f.Members))
	for _, n := range f.Members {
		out = append(out, api.NodeConfig{NodeID: n.ID, ServiceID: f.ServiceID, Address: n.Address})
	}
	return out, nil
}

// FailoverConfig converts the file into the provider configuration.
func (f *File) FailoverConfig() (*api.FailoverConfig, error) {
	logEnv, err := logger.ParseEnv(f.Log.Env)
	if err != nil {
		return nil, err
	}
	cfg := &api.FailoverConfig{
		Log: api.LoggerCfg{Env: logEnv},
		Retry: api.RetryCfg{
			MaxRetries: f.Retry.MaxRetries,
			Interval:   f.Retry.Interval,
		},
		CBreaker: api.CircuitBreakerCfg{
			Enabled:          f.CBreaker.Enabled,
			FailureThreshold: f.CBreaker.FailureThreshold,
			SuccessThreshold: f.CBreaker.SuccessThreshold,
			ResetTimeout:     f.CBreaker.ResetTimeout,
		},
		RPCTimeout: f.RPCTimeout,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Loader loads a File from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides []map[string]any
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies defaults, the file (if any), the environment and finally the
// maps given to LoadMap, and returns the result.
func (l *Loader) Load() (*File, error) {
	if err := l.k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load file %s: %w", l.filePath, err)
		}
	}
	if err := l.loadEnv(); err != nil {
		return nil, err
	}
	for _, m := range l.overrides {
		if err := l.k.Load(mapProvider(m), nil); err != nil {
			return nil, fmt.Errorf("load map: %w", err)
		}
	}

	var f File
	if err := l.k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if f.ServiceID == "" {
		return nil, &api.ConfigurationError{Reason: "service_id is required"}
	}
	if len(f.Members) == 0 {
		return nil, &api.ConfigurationError{Err: api.ErrNoNodes}
	}
	return &f, nil
}

// LoadMap registers data, keyed by dotted paths, to be applied on top of all
// other sources (useful for flags or testing).
func (l *Loader) LoadMap(data map[string]any) {
	l.overrides = append(l.overrides, data)
}

func (l *Loader) loadEnv() error {
	// FAILOVER_RETRY_MAX_RETRIES -> retry.max_retries
	sections := []string{"retry", "circuit_breaker", "log"}
	transform := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		for _, sec := range sections {
			if rest, ok := strings.CutPrefix(s, sec+"_"); ok {
				return sec + "." + rest
			}
		}
		return s
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

func defaults() map[string]any {
	d := failover.DefaultConfig()
	return map[string]any{
		"retry.max_retries":                 d.Retry.MaxRetries,
		"retry.interval":                    d.Retry.Interval.String(),
		"circuit_breaker.enabled":           d.CBreaker.Enabled,
		"circuit_breaker.failure_threshold": d.CBreaker.FailureThreshold,
		"circuit_breaker.success_threshold": d.CBreaker.SuccessThreshold,
		"circuit_breaker.reset_timeout":     d.CBreaker.ResetTimeout.String(),
		"rpc_timeout":                       d.RPCTimeout.String(),
		"log.env":                           d.Log.Env.String(),
	}
}

var errReadBytesNotSupported = errors.New("config: ReadBytes not supported by map provider")

// mapProvider is a koanf provider backed by a flat map of dotted keys.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return maps.Unflatten(out, "."), nil
}
