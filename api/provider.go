package api

import (
	"context"
	"io"
)

// FailoverProxy hands out connections to the node currently believed to be
// the cluster leader and moves that belief on failures.
//
// All methods are safe for concurrent use.
type FailoverProxy[C any] interface {
	io.Closer

	// GetProxy returns the connection to the current node, dialing it on
	// first use. It never fails over by itself.
	GetProxy(ctx context.Context) (*Handle[C], error)

	// PerformFailover moves to the pending leader hint or, without one, to
	// the next node in round-robin order. prev is the handle the failing
	// call used; it may be nil.
	PerformFailover(prev *Handle[C])

	// PerformFailoverToSuggestedLeader records the leader suggested by err
	// (or by suggested when err carries none) and fails over to it.
	PerformFailoverToSuggestedLeader(suggested string, err error)

	// RetryPolicy returns the policy bound to this proxy's state.
	RetryPolicy() RetryPolicy

	// CurrentNodeID returns the id of the node currently preferred.
	CurrentNodeID() string

	// ServiceID returns the logical cluster name served by this proxy.
	ServiceID() string
}
