package failover

import (
	"context"
	"errors"
	"fmt"

	"github.com/shrtyk/raft-failover/api"
)

// connCache memoizes one handle per node id.
//
// It holds no lock of its own: lookup, store and drain must be called with
// the provider lock held, dial and closeAll without it.
type connCache[C any] struct {
	dialer  api.Dialer[C]
	handles map[string]*api.Handle[C]
}

func newConnCache[C any](dialer api.Dialer[C]) *connCache[C] {
	return &connCache[C]{
		dialer:  dialer,
		handles: make(map[string]*api.Handle[C]),
	}
}

func (c *connCache[C]) lookup(nodeID string) (*api.Handle[C], bool) {
	h, ok := c.handles[nodeID]
	return h, ok
}

func (c *connCache[C]) dial(ctx context.Context, d api.NodeDescriptor) (*api.Handle[C], error) {
	conn, err := c.dialer.Dial(ctx, d.Address())
	if err != nil {
		return nil, &api.ConnectionError{NodeID: d.NodeID(), Address: d.Address(), Err: err}
	}
	return api.NewHandle(d, conn), nil
}

// store inserts h unless another handle for the same node won the race, in
// which case the cached one is returned and stored is false.
func (c *connCache[C]) store(h *api.Handle[C]) (winner *api.Handle[C], stored bool) {
	if cur, ok := c.handles[h.NodeID()]; ok {
		return cur, false
	}
	c.handles[h.NodeID()] = h
	return h, true
}

// drain empties the cache and returns what it held.
func (c *connCache[C]) drain() []*api.Handle[C] {
	out := make([]*api.Handle[C], 0, len(c.handles))
	for _, h := range c.handles {
		out = append(out, h)
	}
	clear(c.handles)
	return out
}

// closeAll undials every handle, continuing past failures.
func (c *connCache[C]) closeAll(handles []*api.Handle[C]) error {
	var err error
	for _, h := range handles {
		if cerr := c.dialer.Undial(h.Conn()); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close node %s connection: %w", h.NodeID(), cerr))
		}
	}
	return err
}
