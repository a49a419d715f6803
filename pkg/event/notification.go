package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	// NotificationsTopic carries every customer/staff-facing lifecycle
	// notification. The envelope names the target room so a single
	// subscription can feed an in-process fan-out hub.
	NotificationsTopic = "orders.notifications"

	// StaffRoom is the broadcast group for barista consoles.
	StaffRoom = "staff"
	// TableRoomPrefix scopes a room to one table's customers.
	TableRoomPrefix = "table:"

	EventNewOrder          = "new-order"
	EventOrderUpdated      = "order-updated"
	EventItemStatusUpdated = "item-status-updated"
)

// Envelope is the wire form of one notification: the room it targets, the
// event name, and a minimal payload (identities and new status/amount only).
type Envelope struct {
	Room       string          `json:"room"`
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// TableRoom builds the room name for a table's customer observers.
func TableRoom(tableID uuid.UUID) string {
	return TableRoomPrefix + tableID.String()
}

// NewOrderData announces a freshly created order to the staff room.
type NewOrderData struct {
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	TableNumber  string    `json:"table_number"`
	CustomerName string    `json:"customer_name"`
	TotalAmount  float64   `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderStatusData carries an order-level status transition.
type OrderStatusData struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
}

// LineStatusData carries a single line's preparation-status transition.
type LineStatusData struct {
	OrderID uuid.UUID `json:"order_id"`
	LineID  uuid.UUID `json:"line_id"`
	Status  string    `json:"status"`
}
