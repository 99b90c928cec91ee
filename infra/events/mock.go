package events

import (
	"fmt"
	"sync"

	coreevents "github.com/gridpulse/microgrid-dispatch/core/events"
)

// MockPublisher records published events for tests.
type MockPublisher struct {
	mu     sync.Mutex
	events []coreevents.Event
	// Fail makes every Publish call return an error.
	Fail bool
}

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event or fails if configured to.
func (m *MockPublisher) Publish(ev coreevents.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (m *MockPublisher) Events() []coreevents.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coreevents.Event(nil), m.events...)
}
