package failover

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/pkg/logger"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	addr string
	seq  int
}

type fakeDialer struct {
	mu        sync.Mutex
	seq       int
	dials     map[string]int
	failNext  map[string]error
	undialed  []*fakeConn
	undialErr error
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		dials:    make(map[string]int),
		failNext: make(map[string]error),
	}
}

func (d *fakeDialer) Dial(_ context.Context, addr string) (*fakeConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failNext[addr]; ok {
		delete(d.failNext, addr)
		return nil, err
	}
	d.seq++
	d.dials[addr]++
	return &fakeConn{addr: addr, seq: d.seq}, nil
}

func (d *fakeDialer) Undial(c *fakeConn) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.undialed = append(d.undialed, c)
	return d.undialErr
}

func (d *fakeDialer) dialCount(addr string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[addr]
}

func (d *fakeDialer) undialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.undialed)
}

func nodeAddr(id string) string {
	return fmt.Sprintf("%s.cluster.local:9961", id)
}

func testNodes(ids ...string) api.StaticNodes {
	nodes := make(api.StaticNodes, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, api.NodeConfig{NodeID: id, ServiceID: "scm-service", Address: nodeAddr(id)})
	}
	return nodes
}

func newTestProvider(t *testing.T, ids ...string) (*Provider[*fakeConn], *fakeDialer) {
	t.Helper()
	d := newFakeDialer()
	_, log := logger.NewTestLogger()
	p, err := New[*fakeConn](testNodes(ids...), d, TestsConfig(), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, d
}

func requireTrackerInvariant(t *testing.T, p *Provider[*fakeConn]) {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	tr := p.tracker
	require.GreaterOrEqual(t, tr.idx, 0)
	require.Less(t, tr.idx, len(tr.order))
	require.Equal(t, tr.order[tr.idx], tr.cur)
	_, known := p.reg.descriptor(tr.cur)
	require.True(t, known)
}

var errRefused = errors.New("connection refused")
