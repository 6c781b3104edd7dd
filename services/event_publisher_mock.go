package services

import (
	"context"
	"sync"
)

// PublishedEvent is one event captured by MockEventPublisher
type PublishedEvent struct {
	Channel string
	Event   StatusChangedEvent
}

// MockEventPublisher captures published events for tests
type MockEventPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	Err    error
}

// NewMockEventPublisher creates a new mock publisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event and returns Err
func (m *MockEventPublisher) Publish(_ context.Context, channel string, event StatusChangedEvent) error {
	m.mu.Lock()
	m.events = append(m.events, PublishedEvent{Channel: channel, Event: event})
	m.mu.Unlock()
	return m.Err
}

// Events returns a copy of the captured events
func (m *MockEventPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.events...)
}
