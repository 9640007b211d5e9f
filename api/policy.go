package api

import "time"

// Classification is the retry class of a call failure.
type Classification int

const (
	// ClassFailover means the call should be retried on another node.
	ClassFailover Classification = iota
	// ClassRetry means the call should be retried on the same node.
	ClassRetry
	// ClassFatal means the call must not be retried.
	ClassFatal
)

func (c Classification) String() string {
	switch c {
	case ClassFailover:
		return "failover"
	case ClassRetry:
		return "retry"
	case ClassFatal:
		return "fatal"
	}
	return "unknown"
}

// ErrorClassifier reads retry signals out of call failures.
type ErrorClassifier interface {
	// Classify returns the retry class of err.
	Classify(err error) Classification
	// SuggestedLeader returns the leader address carried by a not-leader
	// redirect, if err is one and it names a leader.
	SuggestedLeader(err error) (address string, ok bool)
}

// Decision is the outcome of a retry policy.
type Decision int

const (
	Fail Decision = iota
	Retry
	FailoverAndRetry
)

func (d Decision) String() string {
	switch d {
	case Fail:
		return "fail"
	case Retry:
		return "retry"
	case FailoverAndRetry:
		return "failover_and_retry"
	}
	return "unknown"
}

// RetryAction is a Decision plus the delay to wait before acting on it.
type RetryAction struct {
	Decision Decision
	Delay    time.Duration
	Reason   string
}

// RetryPolicy decides what happens after a failed attempt of a logical call.
// retries counts same-node retries and failovers counts failovers performed
// so far for that call.
type RetryPolicy interface {
	ShouldRetry(err error, retries, failovers int) RetryAction
}

// Observer receives failover events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	Dialed(nodeID string, err error)
	FailedOver(from, to string, hinted bool)
	Decided(decision Decision)
}
