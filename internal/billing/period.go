package billing

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Period is a bounded span during which ordering is allowed for its tables.
// TotalAmount and OrderCount are derived by the Aggregator and never
// authoritative: a recompute may rewrite them at any time.
type Period struct {
	ID          uuid.UUID  `json:"id" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	Active      bool       `json:"active" bson:"active"`
	StartDate   *time.Time `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
	TotalAmount float64    `json:"total_amount" bson:"total_amount"`
	OrderCount  int        `json:"order_count" bson:"order_count"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy   string     `json:"created_by" bson:"created_by"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy   string     `json:"updated_by" bson:"updated_by"`
}

func (p *Period) GetID() uuid.UUID {
	return p.ID
}

func (p *Period) ResourceType() string {
	return "billing-period"
}

func (p *Period) SetID(id uuid.UUID) {
	p.ID = id
}

// NewPeriod returns an inactive period; activation is always explicit.
func NewPeriod() *Period {
	now := time.Now()
	return &Period{
		ID:        apt.GenerateNewID(),
		Active:    false,
		StartDate: &now,
	}
}

func (p *Period) EnsureID() {
	if p.ID == uuid.Nil {
		p.ID = apt.GenerateNewID()
	}
}

func (p *Period) BeforeCreate() {
	p.EnsureID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
}

func (p *Period) BeforeUpdate() {
	p.UpdatedAt = time.Now()
}

func (p *Period) Activate() {
	p.Active = true
	p.UpdatedAt = time.Now()
}

func (p *Period) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

// Close deactivates the period and stamps the end time if unset. Closed is
// terminal for ordering; the record stays queryable for reporting.
func (p *Period) Close() {
	p.Active = false
	if p.EndDate == nil {
		now := time.Now()
		p.EndDate = &now
	}
	p.UpdatedAt = time.Now()
}

// Closed reports whether the period has an end stamp.
func (p *Period) Closed() bool {
	return p.EndDate != nil && !p.Active
}
