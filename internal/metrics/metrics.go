// Package metrics provides prometheus instrumentation for endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Endpoint records per-endpoint protocol stack activity.
type Endpoint struct {
	Delivered     prometheus.Counter
	Deferred      prometheus.Counter
	TimeoutsFired prometheus.Counter
}

// NewEndpoint constructs Endpoint metrics registered under the given
// service name.
func NewEndpoint(service string) *Endpoint {
	return &Endpoint{
		Delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: service + "_messages_delivered_total",
			Help: "The total number of messages delivered to the handler",
		}),
		Deferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: service + "_reads_deferred_total",
			Help: "The total number of read events buffered by a protocol layer",
		}),
		TimeoutsFired: promauto.NewCounter(prometheus.CounterOpts{
			Name: service + "_timeouts_fired_total",
			Help: "The total number of timeout events entering the protocol stack",
		}),
	}
}
