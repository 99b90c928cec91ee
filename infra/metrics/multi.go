package metrics

import coremetrics "github.com/gridpulse/microgrid-dispatch/core/metrics"

// MultiSink fans client call events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRPC forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordRPC(ev coremetrics.RPCEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRPC(ev); err != nil {
			return err
		}
	}
	return nil
}
