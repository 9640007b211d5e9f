package coordinator

import (
	"context"
	"log/slog"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/internal/cbreaker"
	"github.com/shrtyk/raft-failover/internal/retry"
	"github.com/shrtyk/raft-failover/pkg/logger"
	"github.com/shrtyk/raft-failover/pkg/transport"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ api.Coordinator = (*Coordinator)(nil)

// Coordinator is a thread-safe client for the cluster service.
// Every request is sent to the node the proxy believes is the leader and
// follows redirects until the proxy's retry policy gives up.
type Coordinator struct {
	logger *slog.Logger
	proxy  api.FailoverProxy[*grpc.ClientConn]
	opts   []retry.Option
}

// New creates a Coordinator on top of proxy. cfg supplies the per-attempt
// timeout and the circuit breaker settings; a nil cfg disables both.
func New(
	proxy api.FailoverProxy[*grpc.ClientConn],
	cfg *api.FailoverConfig,
	log *slog.Logger,
) *Coordinator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(slog.String("service_id", proxy.ServiceID()))

	c := &Coordinator{
		logger: log,
		proxy:  proxy,
		opts:   []retry.Option{retry.WithLogger(log)},
	}
	if cfg != nil {
		c.opts = append(c.opts, retry.WithCallTimeout(cfg.RPCTimeout))
		if cfg.CBreaker.Enabled {
			c.opts = append(c.opts, retry.WithBreakers(cbreaker.NewSet(
				cfg.CBreaker.FailureThreshold,
				cfg.CBreaker.SuccessThreshold,
				cfg.CBreaker.ResetTimeout,
			)))
		}
	}
	return c
}

func (c *Coordinator) Submit(ctx context.Context, cmd []byte) (*api.SubmitResult, error) {
	req := wrapperspb.Bytes(cmd)
	resp, err := retry.Invoke(ctx, c.proxy, func(ctx context.Context, h *api.Handle[*grpc.ClientConn]) (*structpb.Struct, error) {
		resp, err := transport.NewClusterServiceClient(h.Conn()).Submit(ctx, req)
		if err != nil {
			c.logger.Debug(
				"failed to submit command",
				slog.String("node_id", h.NodeID()),
				logger.ErrAttr(err),
			)
		}
		return resp, err
	}, c.opts...)
	if err != nil {
		c.logger.Warn("submit failed", logger.ErrAttr(err))
		return nil, err
	}

	term, index, err := transport.ParseSubmitReply(resp)
	if err != nil {
		return nil, err
	}
	return &api.SubmitResult{Term: term, LogIndex: index}, nil
}

func (c *Coordinator) Read(ctx context.Context, query []byte) ([]byte, error) {
	req := wrapperspb.Bytes(query)
	resp, err := retry.Invoke(ctx, c.proxy, func(ctx context.Context, h *api.Handle[*grpc.ClientConn]) (*wrapperspb.BytesValue, error) {
		resp, err := transport.NewClusterServiceClient(h.Conn()).Read(ctx, req)
		if err != nil {
			c.logger.Debug(
				"failed to send read-only query",
				slog.String("node_id", h.NodeID()),
				logger.ErrAttr(err),
			)
		}
		return resp, err
	}, c.opts...)
	if err != nil {
		c.logger.Warn("read failed", logger.ErrAttr(err))
		return nil, err
	}
	return resp.GetValue(), nil
}

// Close releases every connection held by the proxy.
func (c *Coordinator) Close() error {
	return c.proxy.Close()
}
