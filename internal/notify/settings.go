package notify

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Polling interval bounds, in milliseconds.
const (
	PollingIntervalMin = 1000
	PollingIntervalMax = 60000

	defaultPollingInterval = 5000
)

// Settings is the singleton delivery configuration clients read to pick
// between the push stream and polling.
type Settings struct {
	ID              uuid.UUID `json:"id" bson:"_id"`
	PushEnabled     bool      `json:"push_enabled" bson:"push_enabled"`
	PollingEnabled  bool      `json:"polling_enabled" bson:"polling_enabled"`
	PollingInterval int       `json:"polling_interval" bson:"polling_interval"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy       string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

func (s *Settings) GetID() uuid.UUID {
	return s.ID
}

func (s *Settings) ResourceType() string {
	return "notification-settings"
}

func (s *Settings) SetID(id uuid.UUID) {
	s.ID = id
}

func DefaultSettings() *Settings {
	return &Settings{
		ID:              apt.GenerateNewID(),
		PushEnabled:     true,
		PollingEnabled:  true,
		PollingInterval: defaultPollingInterval,
	}
}

// ClampPolling forces the polling interval into its allowed band.
func (s *Settings) ClampPolling() {
	if s.PollingInterval < PollingIntervalMin {
		s.PollingInterval = PollingIntervalMin
	}
	if s.PollingInterval > PollingIntervalMax {
		s.PollingInterval = PollingIntervalMax
	}
}

func (s *Settings) BeforeUpdate() {
	s.UpdatedAt = time.Now()
}

// SettingsRepo stores the singleton settings document. Get returns (nil, nil)
// when it was never written.
type SettingsRepo interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}
