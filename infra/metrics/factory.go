package metrics

import (
	"fmt"

	coremetrics "github.com/gridpulse/microgrid-dispatch/core/metrics"
)

// NewSink builds a sink from configuration. Zero sinks yield a NopSink,
// several are combined into a MultiSink.
func NewSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	var sinks []coremetrics.Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "", "nop":
			sinks = append(sinks, coremetrics.NopSink{})
		case "prometheus":
			s, err := NewPromSink()
			if err != nil {
				return nil, fmt.Errorf("prometheus sink: %w", err)
			}
			sinks = append(sinks, s)
		case "influx":
			sinks = append(sinks, NewInfluxSinkWithFallback(sc.Influx))
		default:
			return nil, fmt.Errorf("unknown metrics sink type %q", sc.Type)
		}
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
