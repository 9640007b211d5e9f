package failover

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/pkg/logger"
)

var _ api.FailoverProxy[any] = (*Provider[any])(nil)

// Provider is a thread-safe FailoverProxy for one service.
// It caches one connection per node and tracks which node is believed to be
// the leader.
type Provider[C any] struct {
	logger     *slog.Logger
	observer   api.Observer
	classifier api.ErrorClassifier
	reg        *registry
	policy     *Policy

	// mu guards everything below.
	mu      sync.Mutex
	cache   *connCache[C]
	tracker *leaderTracker
	closed  bool
}

// GetProxy returns the handle of the current node, dialing it on first use.
//
// The dial runs without the lock held. If two callers race to dial the same
// node the loser's connection is undialed and the cached handle is returned.
func (p *Provider[C]) GetProxy(ctx context.Context) (*api.Handle[C], error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, api.ErrProviderClosed
	}
	nodeID := p.tracker.current()
	if h, ok := p.cache.lookup(nodeID); ok {
		p.mu.Unlock()
		return h, nil
	}
	p.mu.Unlock()

	desc, _ := p.reg.descriptor(nodeID)
	h, err := p.cache.dial(ctx, desc)
	p.observer.Dialed(nodeID, err)
	if err != nil {
		p.logger.Error(
			"failed to create connection",
			slog.String("node_id", nodeID),
			slog.String("address", desc.Address()),
			logger.ErrAttr(err),
		)
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.undial(h)
		return nil, api.ErrProviderClosed
	}
	winner, stored := p.cache.store(h)
	p.mu.Unlock()

	if !stored {
		p.undial(h)
	}
	return winner, nil
}

// PerformFailover moves to the pending leader hint, or to the next node in
// round-robin order when there is none.
//
// When there is no hint and prev belongs to a node that is no longer current,
// another caller already failed over for the same failure and the current
// node is kept.
func (p *Provider[C]) PerformFailover(prev *api.Handle[C]) {
	prevID := ""
	if prev != nil {
		prevID = prev.NodeID()
	}

	p.mu.Lock()
	from, to, hinted, moved := p.failoverLocked(prevID)
	p.mu.Unlock()

	p.logFailover(from, to, hinted, moved)
}

// PerformFailoverToSuggestedLeader fails over to the leader suggested by err,
// or by suggested when err carries no suggestion. suggested may be an address
// or a node id. A suggestion that matches no known node results in a plain
// round-robin failover.
func (p *Provider[C]) PerformFailoverToSuggestedLeader(suggested string, err error) {
	if err != nil {
		if addr, ok := p.classifier.SuggestedLeader(err); ok {
			suggested = addr
		}
	}

	nodeID, ok := p.reg.resolve(suggested)
	if ok {
		p.logger.Debug(
			"failing over to suggested leader",
			slog.String("suggested", suggested),
			slog.String("node_id", nodeID),
		)
	} else if suggested != "" {
		p.logger.Debug(
			"suggested leader does not match any known node",
			slog.String("suggested", suggested),
		)
	}

	p.mu.Lock()
	p.tracker.recordSuggestedLeader(nodeID)
	from, to, hinted, moved := p.failoverLocked("")
	p.mu.Unlock()

	p.logFailover(from, to, hinted, moved)
}

func (p *Provider[C]) failoverLocked(prevID string) (from, to string, hinted, moved bool) {
	from = p.tracker.current()
	_, hinted = p.tracker.pendingHint()
	if !hinted && prevID != "" && prevID != from {
		return from, from, false, false
	}
	p.tracker.applyPendingOrRoundRobin()
	return from, p.tracker.current(), hinted, true
}

func (p *Provider[C]) logFailover(from, to string, hinted, moved bool) {
	if !moved {
		p.logger.Debug("failover already performed by another caller", slog.String("node_id", from))
		return
	}
	p.logger.Debug(
		"failing over to next node",
		slog.String("from", from),
		slog.String("to", to),
		slog.Bool("hinted", hinted),
	)
	p.observer.FailedOver(from, to, hinted)
}

// RetryPolicy returns the policy bound to this provider's state.
func (p *Provider[C]) RetryPolicy() api.RetryPolicy {
	return p.policy
}

// Close undials every cached connection. Failures are logged and returned
// joined; the remaining connections are still closed. Calling Close again is
// a no-op.
func (p *Provider[C]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	handles := p.cache.drain()
	p.mu.Unlock()

	err := p.cache.closeAll(handles)
	if err != nil {
		p.logger.Warn("failed to close some connections", logger.ErrAttr(err))
	}
	return err
}

func (p *Provider[C]) CurrentNodeID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.current()
}

func (p *Provider[C]) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.index()
}

func (p *Provider[C]) ServiceID() string {
	return p.reg.serviceID
}

// Nodes returns the configured nodes in round-robin order.
func (p *Provider[C]) Nodes() []api.NodeDescriptor {
	return p.reg.descriptors()
}

func (p *Provider[C]) recordSuggestedLeader(suggested string) {
	nodeID, _ := p.reg.resolve(suggested)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.recordSuggestedLeader(nodeID)
}

func (p *Provider[C]) affirmCurrent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.markHintConsumed()
}

func (p *Provider[C]) undial(h *api.Handle[C]) {
	if err := p.cache.dialer.Undial(h.Conn()); err != nil {
		p.logger.Warn(
			"failed to close connection",
			slog.String("node_id", h.NodeID()),
			logger.ErrAttr(err),
		)
	}
}
