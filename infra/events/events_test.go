package events

import (
	"testing"
	"time"

	coreevents "github.com/gridpulse/microgrid-dispatch/core/events"
)

func TestMockPublisherRecords(t *testing.T) {
	pub := NewMockPublisher()
	ev := coreevents.Event{
		ID:          "abc",
		Action:      coreevents.ActionCreated,
		MicrogridID: 12,
		DispatchID:  7,
		Time:        time.Now().UTC(),
	}
	if err := pub.Publish(ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got := pub.Events()
	if len(got) != 1 || got[0].ID != "abc" {
		t.Fatalf("events = %v", got)
	}
}

func TestMockPublisherFail(t *testing.T) {
	pub := NewMockPublisher()
	pub.Fail = true
	if err := pub.Publish(coreevents.Event{}); err == nil {
		t.Fatalf("expected error")
	}
	if len(pub.Events()) != 0 {
		t.Fatalf("failed publish must record nothing")
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.ClientID != "dispatch-client" || cfg.Topic != "dispatch/events" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled notifier needs no broker: %v", err)
	}
	cfg.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Errorf("enabled notifier without broker must be rejected")
	}
	cfg.Broker = "tcp://localhost:1883"
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}
