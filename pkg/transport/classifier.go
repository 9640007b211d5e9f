package transport

import (
	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/failover"
	"google.golang.org/grpc/codes"
)

var _ api.ErrorClassifier = (*StatusClassifier)(nil)

// StatusClassifier reads gRPC status errors. Errors that carry no status are
// passed to failover.DefaultClassifier.
type StatusClassifier struct {
	fallback api.ErrorClassifier
}

func NewStatusClassifier() *StatusClassifier {
	return &StatusClassifier{fallback: failover.DefaultClassifier{}}
}

func (c *StatusClassifier) Classify(err error) api.Classification {
	st, info, ok := errorInfo(err)
	if !ok {
		return c.fallback.Classify(err)
	}

	switch info.GetReason() {
	case ReasonNotLeader:
		return api.ClassFailover
	case ReasonLeaderNotReady:
		return api.ClassRetry
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Unknown, codes.Internal:
		return api.ClassFailover
	case codes.ResourceExhausted:
		return api.ClassRetry
	}
	return api.ClassFatal
}

func (c *StatusClassifier) SuggestedLeader(err error) (string, bool) {
	_, info, ok := errorInfo(err)
	if !ok {
		return c.fallback.SuggestedLeader(err)
	}
	if info.GetReason() != ReasonNotLeader {
		return "", false
	}
	addr := info.GetMetadata()[MetadataLeaderAddress]
	return addr, addr != ""
}
