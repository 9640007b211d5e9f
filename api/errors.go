package api

import (
	"errors"
	"fmt"
)

var (
	ErrProviderClosed = errors.New("failover: provider is closed")
	ErrNoNodes        = errors.New("failover: no cluster nodes configured")
)

// ConfigurationError is returned when the cluster node list is missing or
// cannot be resolved. It is fatal at construction time.
type ConfigurationError struct {
	NodeID string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "failover: invalid configuration"
	if e.NodeID != "" {
		msg += fmt.Sprintf(" for node %q", e.NodeID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConnectionError is returned when a node could not be reached.
type ConnectionError struct {
	NodeID  string
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failover: connect to node %s (%s): %v", e.NodeID, e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NotLeaderError is returned by a node that is not the current leader.
// SuggestedLeader is the address of the node it believes is the leader, if any.
type NotLeaderError struct {
	NodeID          string
	SuggestedLeader string
}

func (e *NotLeaderError) Error() string {
	if e.SuggestedLeader == "" {
		return fmt.Sprintf("failover: node %s is not the leader", e.NodeID)
	}
	return fmt.Sprintf("failover: node %s is not the leader, suggested leader %s", e.NodeID, e.SuggestedLeader)
}

// RetriableError reports a recoverable condition on the contacted node that
// should be retried on the same node, e.g. a leader that is not ready yet.
type RetriableError struct {
	NodeID string
	Reason string
	Err    error
}

func (e *RetriableError) Error() string {
	msg := fmt.Sprintf("failover: node %s asked to retry", e.NodeID)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RetriableError) Unwrap() error { return e.Err }

// ExhaustedError is returned once the retry and failover budget of a single
// logical call has been spent. Err is the last observed failure.
type ExhaustedError struct {
	Retries   int
	Failovers int
	Err       error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failover: giving up after %d retries and %d failovers: %v",
		e.Retries, e.Failovers, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }
