package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/cafetab/cafetab/pkg/event"
)

// Notifier fans order activity out to interested rooms. Implementations must
// never block the caller: order processing does not wait on delivery.
type Notifier interface {
	NewOrder(ctx context.Context, tableID uuid.UUID, data event.NewOrderData)
	OrderStatus(ctx context.Context, tableID uuid.UUID, data event.OrderStatusData)
	LineStatus(ctx context.Context, tableID uuid.UUID, data event.LineStatusData)
}

// Broadcast publishes envelopes on the bus, one per target room. Staff always
// hear about everything; the owning table hears about its own orders.
type Broadcast struct {
	publisher events.Publisher
	logger    apt.Logger
}

func NewBroadcast(publisher events.Publisher, logger apt.Logger) *Broadcast {
	return &Broadcast{publisher: publisher, logger: logger}
}

func (b *Broadcast) NewOrder(ctx context.Context, tableID uuid.UUID, data event.NewOrderData) {
	b.emit(ctx, tableID, event.EventNewOrder, data)
}

func (b *Broadcast) OrderStatus(ctx context.Context, tableID uuid.UUID, data event.OrderStatusData) {
	b.emit(ctx, tableID, event.EventOrderUpdated, data)
}

func (b *Broadcast) LineStatus(ctx context.Context, tableID uuid.UUID, data event.LineStatusData) {
	b.emit(ctx, tableID, event.EventItemStatusUpdated, data)
}

func (b *Broadcast) emit(ctx context.Context, tableID uuid.UUID, name string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		b.logger.Errorf("cannot marshal %s notification: %v", name, err)
		return
	}
	rooms := []string{event.StaffRoom, event.TableRoom(tableID)}
	for _, room := range rooms {
		env := event.Envelope{
			Room:       room,
			Event:      name,
			OccurredAt: time.Now(),
			Data:       payload,
		}
		msg, err := json.Marshal(env)
		if err != nil {
			b.logger.Errorf("cannot marshal %s envelope: %v", name, err)
			return
		}
		if err := b.publisher.Publish(ctx, event.NotificationsTopic, msg); err != nil {
			b.logger.Errorf("cannot publish %s notification: %v", name, err)
		}
	}
}

// Noop discards all notifications. Used when push delivery is disabled and
// clients poll instead.
type Noop struct{}

func (Noop) NewOrder(context.Context, uuid.UUID, event.NewOrderData)       {}
func (Noop) OrderStatus(context.Context, uuid.UUID, event.OrderStatusData) {}
func (Noop) LineStatus(context.Context, uuid.UUID, event.LineStatusData)   {}
