package transport

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ErrorDomain = "raftfailover"

	// ReasonNotLeader marks a node that is not the leader.
	// The leader it believes in, if any, is in MetadataLeaderAddress.
	ReasonNotLeader = "NOT_LEADER"
	// ReasonLeaderNotReady marks a leader that cannot serve yet, e.g. while
	// it is still applying its log after an election.
	ReasonLeaderNotReady = "LEADER_NOT_READY"

	MetadataLeaderAddress = "leader_address"
	MetadataNodeID        = "node_id"
)

// NotLeaderStatus returns the error a non-leader node answers with.
// suggested is the address of the believed leader and may be empty.
func NotLeaderStatus(nodeID, suggested string) error {
	md := map[string]string{MetadataNodeID: nodeID}
	if suggested != "" {
		md[MetadataLeaderAddress] = suggested
	}
	return withErrorInfo(
		status.New(codes.FailedPrecondition, fmt.Sprintf("node %s is not the leader", nodeID)),
		ReasonNotLeader,
		md,
	)
}

// LeaderNotReadyStatus returns the error a leader answers with while it is
// not ready to serve requests.
func LeaderNotReadyStatus(nodeID string) error {
	return withErrorInfo(
		status.New(codes.Unavailable, fmt.Sprintf("leader %s is not ready", nodeID)),
		ReasonLeaderNotReady,
		map[string]string{MetadataNodeID: nodeID},
	)
}

func withErrorInfo(st *status.Status, reason string, md map[string]string) error {
	ds, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   ErrorDomain,
		Metadata: md,
	})
	if err != nil {
		return st.Err()
	}
	return ds.Err()
}

// errorInfo returns the status carried by err and its ErrorInfo detail from
// this package's domain, if any.
func errorInfo(err error) (*status.Status, *errdetails.ErrorInfo, bool) {
	var se interface{ GRPCStatus() *status.Status }
	if err == nil || !errors.As(err, &se) {
		return nil, nil, false
	}
	st := se.GRPCStatus()
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return st, info, true
		}
	}
	return st, nil, true
}
