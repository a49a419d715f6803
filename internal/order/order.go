package order

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/cafetab/cafetab/pkg/enums/linestatus"
	"github.com/cafetab/cafetab/pkg/enums/orderstatus"
)

// Line is one priced item within an order. Name and Price are snapshots taken
// at creation, with customization surcharges already applied per unit, so
// later catalog edits never rewrite historical orders.
type Line struct {
	ID          uuid.UUID `json:"id" bson:"id"`
	OfferingID  uuid.UUID `json:"offering_id" bson:"offering_id"`
	Name        string    `json:"name" bson:"name"`
	Price       float64   `json:"price" bson:"price"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	Status      string    `json:"status" bson:"status"`
	Temperature string    `json:"temperature,omitempty" bson:"temperature,omitempty"`
	ExtraShot   bool      `json:"extra_shot" bson:"extra_shot"`
	OatMilk     bool      `json:"oat_milk" bson:"oat_milk"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Subtotal is the charged amount for the line.
func (l *Line) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Order is the central aggregate and the billing record: it exclusively owns
// its lines and is never deleted. TableNumber is snapshotted so renaming a
// table does not rewrite history; BillingPeriodID is captured at creation and
// never changes.
type Order struct {
	ID              uuid.UUID  `json:"id" bson:"_id"`
	OrderNumber     string     `json:"order_number" bson:"order_number"`
	TableID         uuid.UUID  `json:"table_id" bson:"table_id"`
	TableNumber     string     `json:"table_number" bson:"table_number"`
	BillingPeriodID uuid.UUID  `json:"billing_period_id" bson:"billing_period_id"`
	CustomerName    string     `json:"customer_name" bson:"customer_name"`
	Lines           []Line     `json:"lines" bson:"lines"`
	TotalAmount     float64    `json:"total_amount" bson:"total_amount"`
	Status          string     `json:"status" bson:"status"`
	RequestID       string     `json:"request_id,omitempty" bson:"request_id,omitempty"`
	PreparedBy      string     `json:"prepared_by,omitempty" bson:"prepared_by,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy       string     `json:"created_by" bson:"created_by"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy       string     `json:"updated_by" bson:"updated_by"`
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) SetID(id uuid.UUID) {
	o.ID = id
}

func NewOrder() *Order {
	return &Order{
		ID:     apt.GenerateNewID(),
		Status: orderstatus.Statuses.Pending.Name,
	}
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// LineByID returns a pointer into the embedded lines slice, or nil.
func (o *Order) LineByID(id uuid.UUID) *Line {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i]
		}
	}
	return nil
}

// LineStatuses returns the preparation statuses of all lines in order.
func (o *Order) LineStatuses() []string {
	statuses := make([]string, len(o.Lines))
	for i := range o.Lines {
		statuses[i] = o.Lines[i].Status
	}
	return statuses
}

// SetStatus moves the order and stamps completion bookkeeping when the new
// status is completed.
func (o *Order) SetStatus(status, staffID string) {
	o.Status = status
	if status == orderstatus.Statuses.Completed.Name {
		now := time.Now()
		o.CompletedAt = &now
		if staffID != "" {
			o.PreparedBy = staffID
		}
	}
	o.UpdatedAt = time.Now()
}

// SetAllLines moves every line to the given preparation status.
func (o *Order) SetAllLines(status string) {
	for i := range o.Lines {
		o.Lines[i].Status = status
	}
}

func NewLine() Line {
	return Line{
		ID:     apt.GenerateNewID(),
		Status: linestatus.Statuses.Pending.Name,
	}
}
