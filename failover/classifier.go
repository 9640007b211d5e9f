package failover

import (
	"context"
	"errors"

	"github.com/shrtyk/raft-failover/api"
)

var _ api.ErrorClassifier = DefaultClassifier{}

// DefaultClassifier understands the error types of the api package.
// Unknown errors need a failover, as a node that fails in an unexpected way
// is not trusted to be the leader.
type DefaultClassifier struct{}

func (DefaultClassifier) Classify(err error) api.Classification {
	var (
		retriable *api.RetriableError
		notLeader *api.NotLeaderError
		connErr   *api.ConnectionError
		cfgErr    *api.ConfigurationError
	)
	switch {
	case err == nil:
		return api.ClassFatal
	case errors.Is(err, context.Canceled),
		errors.Is(err, api.ErrProviderClosed),
		errors.As(err, &cfgErr):
		return api.ClassFatal
	case errors.As(err, &retriable):
		return api.ClassRetry
	case errors.As(err, &notLeader),
		errors.As(err, &connErr),
		errors.Is(err, context.DeadlineExceeded):
		return api.ClassFailover
	}
	return api.ClassFailover
}

func (DefaultClassifier) SuggestedLeader(err error) (string, bool) {
	var notLeader *api.NotLeaderError
	if errors.As(err, &notLeader) && notLeader.SuggestedLeader != "" {
		return notLeader.SuggestedLeader, true
	}
	return "", false
}
