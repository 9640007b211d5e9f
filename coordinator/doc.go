// Package coordinator implements api.Coordinator over gRPC, delegating leader
// tracking and failover to an api.FailoverProxy.
package coordinator
