/*
Package api defines the core public interfaces for the leader-tracking
failover client. It provides the contracts that users of the library must
implement and the primary interfaces for talking to a cluster that elects a
leader.

# Mandatory User Implementations

To use this library, you must provide implementations for the following
interfaces:

  - Dialer: This interface defines how a connection to a single cluster node
    is created and torn down. A default gRPC-based dialer is provided in the
    `github.com/shrtyk/raft-failover/pkg/transport` package.

  - NodeSource: This interface yields the ordered list of cluster nodes.
    A koanf-based YAML/env implementation is provided in the
    `github.com/shrtyk/raft-failover/pkg/config` package.

Optionally an ErrorClassifier can be supplied to teach the provider how to
read redirect and busy signals out of transport errors, and an Observer can be
supplied to export failover events.
*/
package api
