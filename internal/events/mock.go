package events

import (
	"context"
	"sync"
)

// Published records one call to a Mock broadcaster.
type Published struct {
	Room    string // "tenant" or "user"
	Target  string
	Event   string
	Payload any
}

// Mock is an in-memory Broadcaster for tests. It records every publish and
// can be set to fail so best-effort delivery paths can be exercised.
type Mock struct {
	mu     sync.Mutex
	events []Published

	// Err, when set, is returned from every publish.
	Err error
}

var _ Broadcaster = (*Mock)(nil)

// NewMock creates an empty mock broadcaster.
func NewMock() *Mock {
	return &Mock{}
}

// PublishToTenant records a tenant event.
func (m *Mock) PublishToTenant(_ context.Context, tenantID, event string, payload any) error {
	return m.record("tenant", tenantID, event, payload)
}

// PublishToUser records a user notification.
func (m *Mock) PublishToUser(_ context.Context, userID, event string, payload any) error {
	return m.record("user", userID, event, payload)
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Events returns a copy of everything recorded so far.
func (m *Mock) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Published, len(m.events))
	copy(out, m.events)
	return out
}

// ByEvent returns recorded publishes with the given event name.
func (m *Mock) ByEvent(event string) []Published {
	var out []Published
	for _, p := range m.Events() {
		if p.Event == event {
			out = append(out, p)
		}
	}
	return out
}

func (m *Mock) record(room, target, event string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, Published{Room: room, Target: target, Event: event, Payload: payload})
	return nil
}
