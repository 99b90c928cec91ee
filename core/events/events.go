// Package events defines the dispatch lifecycle notification contract. The
// MQTT implementation lives in infra/events; the client publishes one event
// after every successful mutation when a publisher is configured.
package events

import "time"

// Action is the kind of lifecycle transition an event reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event describes one dispatch lifecycle transition.
type Event struct {
	// ID uniquely identifies the event instance.
	ID          string    `json:"id"`
	Action      Action    `json:"action"`
	MicrogridID uint64    `json:"microgrid_id"`
	DispatchID  uint64    `json:"dispatch_id"`
	Time        time.Time `json:"time"`
}

// Publisher delivers lifecycle events to interested parties.
type Publisher interface {
	Publish(ev Event) error
}

// NopPublisher drops all events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) error { return nil }
