package api

import "fmt"

// NodeConfig is a single configured cluster member as returned by a NodeSource.
type NodeConfig struct {
	NodeID    string
	ServiceID string
	Address   string
}

// NodeSource yields the ordered list of cluster members.
// The order is used as the round-robin sequence.
type NodeSource interface {
	Nodes() ([]NodeConfig, error)
}

// NodeSourceFunc adapts a plain function to NodeSource.
type NodeSourceFunc func() ([]NodeConfig, error)

func (f NodeSourceFunc) Nodes() ([]NodeConfig, error) { return f() }

// StaticNodes is a NodeSource backed by a fixed slice.
type StaticNodes []NodeConfig

func (s StaticNodes) Nodes() ([]NodeConfig, error) { return s, nil }

// NodeDescriptor is the immutable identity of one cluster member.
type NodeDescriptor struct {
	nodeID    string
	serviceID string
	address   string
}

func NewNodeDescriptor(nodeID, serviceID, address string) NodeDescriptor {
	return NodeDescriptor{nodeID: nodeID, serviceID: serviceID, address: address}
}

func (d NodeDescriptor) NodeID() string    { return d.nodeID }
func (d NodeDescriptor) ServiceID() string { return d.serviceID }
func (d NodeDescriptor) Address() string   { return d.address }

func (d NodeDescriptor) String() string {
	return fmt.Sprintf("nodeId=%s,serviceId=%s,address=%s", d.nodeID, d.serviceID, d.address)
}
