package failover

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/shrtyk/raft-failover/api"
)

// registry is the immutable node set of one provider.
// order is the configuration order and doubles as the round-robin sequence.
type registry struct {
	serviceID string
	order     []string
	nodes     map[string]api.NodeDescriptor
	// normalized address -> node id
	byAddress map[string]string
}

func buildRegistry(src api.NodeSource) (*registry, error) {
	if src == nil {
		return nil, &api.ConfigurationError{Err: api.ErrNoNodes}
	}
	cfgs, err := src.Nodes()
	if err != nil {
		return nil, &api.ConfigurationError{Reason: "failed to load cluster nodes", Err: err}
	}
	if len(cfgs) == 0 {
		return nil, &api.ConfigurationError{Err: api.ErrNoNodes}
	}

	r := &registry{
		order:     make([]string, 0, len(cfgs)),
		nodes:     make(map[string]api.NodeDescriptor, len(cfgs)),
		byAddress: make(map[string]string, len(cfgs)),
	}
	for i, c := range cfgs {
		if c.NodeID == "" {
			return nil, &api.ConfigurationError{Reason: fmt.Sprintf("node #%d has no id", i)}
		}
		if _, dup := r.nodes[c.NodeID]; dup {
			return nil, &api.ConfigurationError{NodeID: c.NodeID, Reason: "duplicate node id"}
		}
		if c.Address == "" {
			return nil, &api.ConfigurationError{
				NodeID: c.NodeID,
				Reason: "client address could not be obtained from config",
			}
		}
		addr, err := normalizeAddress(c.Address)
		if err != nil {
			return nil, &api.ConfigurationError{NodeID: c.NodeID, Reason: "unresolvable address", Err: err}
		}
		if i == 0 {
			r.serviceID = c.ServiceID
		} else if c.ServiceID != r.serviceID {
			return nil, &api.ConfigurationError{
				NodeID: c.NodeID,
				Reason: fmt.Sprintf("service id %q does not match %q", c.ServiceID, r.serviceID),
			}
		}
		if other, dup := r.byAddress[addr]; dup {
			return nil, &api.ConfigurationError{
				NodeID: c.NodeID,
				Reason: fmt.Sprintf("address %s already used by node %s", addr, other),
			}
		}

		r.order = append(r.order, c.NodeID)
		r.nodes[c.NodeID] = api.NewNodeDescriptor(c.NodeID, c.ServiceID, addr)
		r.byAddress[addr] = c.NodeID
	}
	return r, nil
}

func (r *registry) size() int { return len(r.order) }

func (r *registry) descriptor(nodeID string) (api.NodeDescriptor, bool) {
	d, ok := r.nodes[nodeID]
	return d, ok
}

// resolve maps a suggested leader, given as an address or as a node id, to a
// known node id.
func (r *registry) resolve(suggested string) (string, bool) {
	if suggested == "" {
		return "", false
	}
	if addr, err := normalizeAddress(suggested); err == nil {
		if id, ok := r.byAddress[addr]; ok {
			return id, true
		}
	}
	if _, ok := r.nodes[suggested]; ok {
		return suggested, true
	}
	return "", false
}

func (r *registry) descriptors() []api.NodeDescriptor {
	out := make([]api.NodeDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.nodes[id])
	}
	return out
}

// normalizeAddress validates a host:port pair and returns its canonical form.
func normalizeAddress(addr string) (string, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return "", err
	}
	if host == "" {
		return "", fmt.Errorf("address %q has no host", addr)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", fmt.Errorf("address %q has invalid port: %w", addr, err)
	}
	return net.JoinHostPort(strings.ToLower(host), port), nil
}
