package notify

import (
	"context"

	"github.com/appetiteclub/apt/events"
)

// MockSettingsRepo is a test double for SettingsRepo.
type MockSettingsRepo struct {
	settings *Settings
	GetFunc  func(ctx context.Context) (*Settings, error)
	SaveFunc func(ctx context.Context, s *Settings) error
}

func (m *MockSettingsRepo) Get(ctx context.Context) (*Settings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return m.settings, nil
}

func (m *MockSettingsRepo) Save(ctx context.Context, s *Settings) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	m.settings = s
	return nil
}

// MockPublisher records published messages by topic.
type MockPublisher struct {
	Published map[string][][]byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Published: make(map[string][][]byte),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.Published[topic] = append(m.Published[topic], msg)
	return nil
}

// MockSubscriber hands the registered handler back to the test for direct
// invocation.
type MockSubscriber struct {
	Handlers map[string]events.HandlerFunc
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{
		Handlers: make(map[string]events.HandlerFunc),
	}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	m.Handlers[topic] = handler
	return nil
}
