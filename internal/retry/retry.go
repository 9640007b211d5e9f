package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/internal/cbreaker"
	"github.com/shrtyk/raft-failover/pkg/logger"
)

// Func is a call made against a single node.
type Func[C, R any] func(ctx context.Context, h *api.Handle[C]) (R, error)

type config struct {
	breakers    *cbreaker.Set
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option configures the invoker
type Option func(*config)

// WithBreakers guards every node with its breaker from s.
// A call refused by an open breaker counts as a connection failure.
func WithBreakers(s *cbreaker.Set) Option {
	return func(c *config) {
		c.breakers = s
	}
}

// WithCallTimeout bounds every single attempt.
// The default is no bound beyond ctx.
func WithCallTimeout(d time.Duration) Option {
	return func(c *config) {
		c.callTimeout = d
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Invoke runs fn against the proxy's current node until it succeeds, the
// proxy's retry policy gives up or ctx is done.
//
// When the policy gives up the last failure is returned wrapped in an
// *api.ExhaustedError.
func Invoke[C, R any](ctx context.Context, proxy api.FailoverProxy[C], fn Func[C, R], opts ...Option) (R, error) {
	cfg := &config{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var zero R
	policy := proxy.RetryPolicy()
	retries, failovers := 0, 0
	for {
		h, err := proxy.GetProxy(ctx)
		if err == nil {
			var resp R
			resp, err = call(ctx, cfg, h, fn)
			if err == nil {
				return resp, nil
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		action := policy.ShouldRetry(err, retries, failovers)
		switch action.Decision {
		case api.Retry:
			retries++
		case api.FailoverAndRetry:
			proxy.PerformFailover(h)
			failovers++
		default:
			return zero, &api.ExhaustedError{Retries: retries, Failovers: failovers, Err: err}
		}

		cfg.logger.Debug(
			"retrying call",
			slog.String("decision", action.Decision.String()),
			slog.String("reason", action.Reason),
			slog.Int("retries", retries),
			slog.Int("failovers", failovers),
			logger.ErrAttr(err),
		)

		if err := sleep(ctx, action.Delay); err != nil {
			return zero, err
		}
	}
}

func call[C, R any](ctx context.Context, cfg *config, h *api.Handle[C], fn Func[C, R]) (R, error) {
	if cfg.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.callTimeout)
		defer cancel()
	}
	if cfg.breakers == nil {
		return fn(ctx, h)
	}

	resp, err := cbreaker.Do(ctx, cfg.breakers.For(h.NodeID()), func(ctx context.Context) (R, error) {
		return fn(ctx, h)
	})
	if errors.Is(err, cbreaker.ErrOpenState) {
		err = &api.ConnectionError{NodeID: h.NodeID(), Address: h.Node().Address(), Err: err}
	}
	return resp, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
