package failover

import "github.com/shrtyk/raft-failover/api"

var _ api.Observer = noopObserver{}

type noopObserver struct{}

func (noopObserver) Dialed(string, error)            {}
func (noopObserver) FailedOver(string, string, bool) {}
func (noopObserver) Decided(api.Decision)            {}
