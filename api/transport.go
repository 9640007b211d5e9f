package api

import "context"

// Dialer creates and destroys connections to a single cluster node.
// C is the concrete connection type, e.g. *grpc.ClientConn.
type Dialer[C any] interface {
	// Dial establishes a connection to the node at address.
	Dial(ctx context.Context, address string) (C, error)
	// Undial releases a connection previously returned by Dial.
	Undial(conn C) error
}

// Handle is a live, reusable connection to exactly one node.
//
// Handles are owned by the provider that returned them and must not be closed
// by callers.
type Handle[C any] struct {
	node NodeDescriptor
	conn C
}

func NewHandle[C any](node NodeDescriptor, conn C) *Handle[C] {
	return &Handle[C]{node: node, conn: conn}
}

// NodeID returns the id of the node this handle is connected to.
func (h *Handle[C]) NodeID() string { return h.node.NodeID() }

// Node returns the descriptor of the node this handle is connected to.
func (h *Handle[C]) Node() NodeDescriptor { return h.node }

// Conn returns the underlying transport connection.
func (h *Handle[C]) Conn() C { return h.conn }

func (h *Handle[C]) String() string { return h.node.String() }
