package tables

import (
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Table is a physical ordering point. The scan token is what a table's QR
// code resolves to; it never changes once printed. A table may be pinned to a
// specific billing period, otherwise orders fall back to whichever period is
// active system-wide.
type Table struct {
	ID              uuid.UUID  `json:"id" bson:"_id"`
	Number          string     `json:"number" bson:"number"`
	ScanToken       string     `json:"scan_token" bson:"scan_token"`
	Active          bool       `json:"active" bson:"active"`
	Location        string     `json:"location,omitempty" bson:"location,omitempty"`
	BillingPeriodID *uuid.UUID `json:"billing_period_id,omitempty" bson:"billing_period_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy       string     `json:"created_by" bson:"created_by"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy       string     `json:"updated_by" bson:"updated_by"`
}

func (t *Table) GetID() uuid.UUID {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func (t *Table) SetID(id uuid.UUID) {
	t.ID = id
}

func NewTable() *Table {
	return &Table{
		ID:        apt.GenerateNewID(),
		ScanToken: NewScanToken(),
		Active:    true,
	}
}

// NewScanToken produces an opaque token for QR encoding.
func NewScanToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (t *Table) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = apt.GenerateNewID()
	}
}

func (t *Table) BeforeCreate() {
	t.EnsureID()
	if t.ScanToken == "" {
		t.ScanToken = NewScanToken()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
}

func (t *Table) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

func (t *Table) Activate() {
	t.Active = true
	t.UpdatedAt = time.Now()
}

func (t *Table) Deactivate() {
	t.Active = false
	t.UpdatedAt = time.Now()
}
