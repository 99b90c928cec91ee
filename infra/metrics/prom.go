package metrics

import (
	coremetrics "github.com/gridpulse/microgrid-dispatch/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records client call events in Prometheus metrics.
type PromSink struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewPromSink registers the client metrics on the default Prometheus
// registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_client_requests_total",
		Help: "Total number of dispatch API calls",
	}, []string{"method", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_client_request_duration_seconds",
		Help:    "Duration of dispatch API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			requests = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{requests: requests, latency: latency}, nil
}

// RecordRPC increments the call counter and observes the call duration.
func (s *PromSink) RecordRPC(ev coremetrics.RPCEvent) error {
	s.requests.WithLabelValues(ev.Method, ev.Code).Inc()
	s.latency.WithLabelValues(ev.Method).Observe(ev.Duration.Seconds())
	return nil
}
