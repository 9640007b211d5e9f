package failover

import (
	"errors"
	"log/slog"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/pkg/logger"
)

type providerBuilder[C any] struct {
	// required
	source api.NodeSource
	dialer api.Dialer[C]

	// optional with defaults
	cfg        *api.FailoverConfig
	logger     *slog.Logger
	classifier api.ErrorClassifier
	observer   api.Observer
}

func NewProviderBuilder[C any](source api.NodeSource, dialer api.Dialer[C]) api.ProviderBuilder[C] {
	return &providerBuilder[C]{
		source: source,
		dialer: dialer,
		cfg:    DefaultConfig(),
	}
}

func (b *providerBuilder[C]) Build() (api.FailoverProxy[C], error) {
	return b.build()
}

func (b *providerBuilder[C]) build() (*Provider[C], error) {
	if b.dialer == nil {
		return nil, errors.New("builder: dialer is required")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, &api.ConfigurationError{Reason: "invalid failover config", Err: err}
	}

	reg, err := buildRegistry(b.source)
	if err != nil {
		return nil, err
	}

	log := b.logger
	if log == nil {
		log = logger.NewLogger(b.cfg.Log.Env, false)
	}
	log = log.With(slog.String("service_id", reg.serviceID))

	classifier := b.classifier
	if classifier == nil {
		classifier = DefaultClassifier{}
	}
	observer := b.observer
	if observer == nil {
		observer = noopObserver{}
	}

	p := &Provider[C]{
		logger:     log,
		observer:   observer,
		classifier: classifier,
		reg:        reg,
		cache:      newConnCache(b.dialer),
		tracker:    newLeaderTracker(reg.order),
	}
	p.policy = &Policy{
		logger:     log,
		classifier: classifier,
		observer:   observer,
		hints:      p,
		maxRetries: b.cfg.Retry.MaxRetries,
		interval:   b.cfg.Retry.Interval,
	}

	log.Debug(
		"failover provider created",
		slog.Int("nodes", reg.size()),
		slog.String("current", p.tracker.current()),
	)
	return p, nil
}

func (b *providerBuilder[C]) WithConfig(cfg *api.FailoverConfig) api.ProviderBuilder[C] {
	if cfg != nil {
		b.cfg = cfg
	}
	return b
}

func (b *providerBuilder[C]) WithLogger(l *slog.Logger) api.ProviderBuilder[C] {
	b.logger = l
	return b
}

func (b *providerBuilder[C]) WithClassifier(c api.ErrorClassifier) api.ProviderBuilder[C] {
	b.classifier = c
	return b
}

func (b *providerBuilder[C]) WithObserver(o api.Observer) api.ProviderBuilder[C] {
	b.observer = o
	return b
}

// New builds a Provider directly, for callers that need the concrete type.
func New[C any](source api.NodeSource, dialer api.Dialer[C], cfg *api.FailoverConfig, log *slog.Logger) (*Provider[C], error) {
	b := &providerBuilder[C]{source: source, dialer: dialer, cfg: cfg, logger: log}
	if b.cfg == nil {
		b.cfg = DefaultConfig()
	}
	return b.build()
}
