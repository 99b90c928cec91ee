// Package metrics defines the client-side instrumentation contract. Sinks
// like PromSink and InfluxSink in infra/metrics record one event per remote
// call and can be combined with a MultiSink.
package metrics

import "time"

// RPCEvent describes one completed remote call.
type RPCEvent struct {
	// Method is the RPC name, e.g. "CreateMicrogridDispatch".
	Method string
	// Code is the canonical gRPC status string, "OK" on success.
	Code string
	// Duration is the wall time of the call.
	Duration time.Duration
	// MicrogridID is the scope the call addressed.
	MicrogridID uint64
}

// Sink records client call events.
type Sink interface {
	RecordRPC(ev RPCEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordRPC(RPCEvent) error { return nil }
