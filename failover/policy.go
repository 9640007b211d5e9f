package failover

import (
	"log/slog"
	"time"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/pkg/logger"
)

var _ api.RetryPolicy = (*Policy)(nil)

// leaderHints is the part of the provider state the policy updates.
type leaderHints interface {
	CurrentNodeID() string
	recordSuggestedLeader(suggested string)
	affirmCurrent()
}

// Policy maps a call failure to a retry decision and keeps the provider's
// leader hint up to date while doing so.
type Policy struct {
	logger     *slog.Logger
	classifier api.ErrorClassifier
	observer   api.Observer
	hints      leaderHints
	maxRetries int
	interval   time.Duration
}

// ShouldRetry classifies err and returns the retry decision for a call that
// has already been retried retries times and failed over failovers times.
//
// Same-node retries and failovers are each bounded by the configured
// MaxRetries.
func (p *Policy) ShouldRetry(err error, retries, failovers int) api.RetryAction {
	class := p.classifier.Classify(err)
	p.logger.Debug(
		"retry policy consulted",
		slog.String("node_id", p.hints.CurrentNodeID()),
		slog.String("class", class.String()),
		slog.Int("retries", retries),
		slog.Int("failovers", failovers),
		logger.ErrAttr(err),
	)

	var action api.RetryAction
	switch class {
	case api.ClassFatal:
		action = api.RetryAction{Decision: api.Fail, Reason: "non-retriable error"}
	case api.ClassRetry:
		p.hints.affirmCurrent()
		if retries < p.maxRetries {
			action = api.RetryAction{Decision: api.Retry, Delay: p.interval, Reason: "retriable on the same node"}
		} else {
			action = api.RetryAction{Decision: api.Fail, Reason: "retry budget exhausted"}
		}
	default:
		suggested, _ := p.classifier.SuggestedLeader(err)
		p.hints.recordSuggestedLeader(suggested)
		if failovers < p.maxRetries {
			action = api.RetryAction{Decision: api.FailoverAndRetry, Delay: p.interval, Reason: "needs failover"}
		} else {
			action = api.RetryAction{Decision: api.Fail, Reason: "failover budget exhausted"}
		}
	}

	p.observer.Decided(action.Decision)
	return action
}
