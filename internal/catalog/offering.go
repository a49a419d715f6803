package catalog

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Temperature capability of an offering. "both" lets the customer choose and
// is the only capability that attracts the cold surcharge when iced is picked.
const (
	TempHot      = "hot"
	TempIced     = "iced"
	TempIcedOnly = "iced-only"
	TempBoth     = "both"
)

// Offering is a sellable catalog entry: pricing base plus customization rules.
// Read-only to the ordering flow; staff manage it through the admin surface.
type Offering struct {
	ID             uuid.UUID `json:"id" bson:"_id"`
	Name           string    `json:"name" bson:"name"`
	Description    string    `json:"description,omitempty" bson:"description,omitempty"`
	Category       string    `json:"category" bson:"category"`
	BasePrice      float64   `json:"base_price" bson:"base_price"`
	ImageURL       string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Active         bool      `json:"active" bson:"active"`
	PrepMinutes    int       `json:"prep_minutes" bson:"prep_minutes"`
	Temperature    string    `json:"temperature" bson:"temperature"`
	AllowExtraShot bool      `json:"allow_extra_shot" bson:"allow_extra_shot"`
	AllowOatMilk   bool      `json:"allow_oat_milk" bson:"allow_oat_milk"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	CreatedBy      string    `json:"created_by" bson:"created_by"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy      string    `json:"updated_by" bson:"updated_by"`
}

func (o *Offering) GetID() uuid.UUID {
	return o.ID
}

func (o *Offering) ResourceType() string {
	return "offering"
}

func (o *Offering) SetID(id uuid.UUID) {
	o.ID = id
}

func NewOffering() *Offering {
	return &Offering{
		ID:          apt.GenerateNewID(),
		Active:      true,
		PrepMinutes: 10,
		Temperature: TempHot,
	}
}

func (o *Offering) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *Offering) BeforeCreate() {
	o.EnsureID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *Offering) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// ColdOnly reports whether iced is the offering's only temperature, in which
// case picking iced is not a paid choice.
func (o *Offering) ColdOnly() bool {
	return o.Temperature == TempIced || o.Temperature == TempIcedOnly
}

// DefaultTemperature is the temperature applied when the customer states none.
func (o *Offering) DefaultTemperature() string {
	if o.ColdOnly() {
		return TempIced
	}
	return TempHot
}

// AllowsTemperature reports whether the requested temperature is compatible
// with the offering's capability.
func (o *Offering) AllowsTemperature(temp string) bool {
	switch o.Temperature {
	case TempBoth:
		return temp == TempHot || temp == TempIced
	case TempHot:
		return temp == TempHot
	case TempIced, TempIcedOnly:
		return temp == TempIced
	default:
		return false
	}
}
