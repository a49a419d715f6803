package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/cafetab/cafetab/pkg/event"
)

// Bridge feeds envelopes from the bus into the local hub so every instance
// serves its own streaming clients regardless of which instance took the
// order.
type Bridge struct {
	subscriber events.Subscriber
	hub        *Hub
	logger     apt.Logger
}

func NewBridge(subscriber events.Subscriber, hub *Hub, logger apt.Logger) *Bridge {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Bridge{
		subscriber: subscriber,
		hub:        hub,
		logger:     logger,
	}
}

func (b *Bridge) Start(ctx context.Context) error {
	if err := b.subscriber.Subscribe(ctx, event.NotificationsTopic, b.handle); err != nil {
		return fmt.Errorf("cannot subscribe to notifications: %w", err)
	}
	b.logger.Info("notification bridge started", "topic", event.NotificationsTopic)
	return nil
}

func (b *Bridge) handle(ctx context.Context, data []byte) error {
	var env event.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("cannot decode notification envelope: %w", err)
	}
	b.hub.Publish(env)
	return nil
}
