// Package metrics exports failover events as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shrtyk/raft-failover/api"
)

var _ api.Observer = (*Registry)(nil)

// Registry holds the failover metrics of one service.
type Registry struct {
	registry  *prometheus.Registry
	serviceID string

	DialsTotal     *prometheus.CounterVec
	FailoversTotal *prometheus.CounterVec
	DecisionsTotal *prometheus.CounterVec
	CurrentNode    *prometheus.GaugeVec
}

// NewRegistry creates a registry for serviceID with Go runtime and process
// collectors registered.
func NewRegistry(serviceID string) *Registry {
	r := &Registry{
		registry:  prometheus.NewRegistry(),
		serviceID: serviceID,
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r.DialsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "failover_dials_total",
			Help: "Total number of connection attempts to cluster nodes",
		},
		[]string{"service", "node", "result"}, // ok, error
	)

	r.FailoversTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "failover_failovers_total",
			Help: "Total number of failovers between cluster nodes",
		},
		[]string{"service", "kind"}, // hinted, round_robin
	)

	r.DecisionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "failover_retry_decisions_total",
			Help: "Total number of retry policy decisions",
		},
		[]string{"service", "decision"},
	)

	r.CurrentNode = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "failover_current_node",
			Help: "Node currently believed to be the leader (1 for the current node, 0 otherwise)",
		},
		[]string{"service", "node"},
	)

	return r
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// SetCurrentNode marks nodeID as the current node out of nodes.
func (r *Registry) SetCurrentNode(nodeID string, nodes []string) {
	for _, n := range nodes {
		r.CurrentNode.WithLabelValues(r.serviceID, n).Set(0)
	}
	r.CurrentNode.WithLabelValues(r.serviceID, nodeID).Set(1)
}

func (r *Registry) Dialed(nodeID string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.DialsTotal.WithLabelValues(r.serviceID, nodeID, result).Inc()
}

func (r *Registry) FailedOver(from, to string, hinted bool) {
	kind := "round_robin"
	if hinted {
		kind = "hinted"
	}
	r.FailoversTotal.WithLabelValues(r.serviceID, kind).Inc()
	if from != to {
		r.CurrentNode.WithLabelValues(r.serviceID, from).Set(0)
	}
	r.CurrentNode.WithLabelValues(r.serviceID, to).Set(1)
}

func (r *Registry) Decided(decision api.Decision) {
	r.DecisionsTotal.WithLabelValues(r.serviceID, decision.String()).Inc()
}
