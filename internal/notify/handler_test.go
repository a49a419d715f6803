package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cafetab/cafetab/pkg/event"
)

func newSettingsServer(repo SettingsRepo) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(NewHub(apt.NewNoopLogger()), repo, apt.NewConfig(), apt.NewNoopLogger()).RegisterRoutes(r)
	return r
}

func TestHandlerGetSettingsDefaultsWhenUnset(t *testing.T) {
	srv := newSettingsServer(&MockSettingsRepo{})

	req := httptest.NewRequest(http.MethodGet, "/settings/notifications", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GetSettings() status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response does not contain data object: %s", w.Body.String())
	}
	if data["push_enabled"] != true || data["polling_enabled"] != true {
		t.Errorf("defaults = %v, want both modes enabled", data)
	}
}

func TestHandlerUpdateSettingsClampsInterval(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantInterval float64
	}{
		{name: "belowBand", body: `{"polling_interval": 50}`, wantInterval: 1000},
		{name: "aboveBand", body: `{"polling_interval": 600000}`, wantInterval: 60000},
		{name: "inBand", body: `{"polling_interval": 2500}`, wantInterval: 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockSettingsRepo{}
			srv := newSettingsServer(repo)

			req := httptest.NewRequest(http.MethodPut, "/settings/notifications", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("UpdateSettings() status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
			}
			if repo.settings == nil || float64(repo.settings.PollingInterval) != tt.wantInterval {
				t.Errorf("stored interval = %v, want %v", repo.settings, tt.wantInterval)
			}
		})
	}
}

func TestHandlerUpdateSettingsToggles(t *testing.T) {
	repo := &MockSettingsRepo{}
	srv := newSettingsServer(repo)

	body := `{"push_enabled": false, "polling_enabled": false}`
	req := httptest.NewRequest(http.MethodPut, "/settings/notifications", bytes.NewBufferString(body))
	req.Header.Set("X-Staff-ID", "manager-1")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("UpdateSettings() status = %d, want %d", w.Code, http.StatusOK)
	}
	if repo.settings.PushEnabled || repo.settings.PollingEnabled {
		t.Errorf("stored settings = %+v, want both disabled", repo.settings)
	}
	if repo.settings.UpdatedBy != "manager-1" {
		t.Errorf("UpdatedBy = %q, want manager-1", repo.settings.UpdatedBy)
	}
}

func TestHandlerStreamRejectsBadRoom(t *testing.T) {
	srv := newSettingsServer(&MockSettingsRepo{})

	tests := []struct {
		name  string
		query string
	}{
		{name: "missingRoom", query: ""},
		{name: "unknownRoom", query: "?room=kitchen"},
		{name: "invalidTableID", query: "?table_id=not-a-uuid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/notifications/stream"+tt.query, nil)
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Stream() status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestBroadcastTargetsStaffAndTableRooms(t *testing.T) {
	pub := NewMockPublisher()
	b := NewBroadcast(pub, apt.NewNoopLogger())
	tableID := uuid.New()

	b.NewOrder(context.Background(), tableID, event.NewOrderData{OrderNumber: "ORD-20260301-0001"})

	msgs := pub.Published[event.NotificationsTopic]
	if len(msgs) != 2 {
		t.Fatalf("published %d envelopes, want 2", len(msgs))
	}

	rooms := make(map[string]bool)
	for _, msg := range msgs {
		var env event.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("cannot decode envelope: %v", err)
		}
		if env.Event != event.EventNewOrder {
			t.Errorf("Event = %q, want %q", env.Event, event.EventNewOrder)
		}
		rooms[env.Room] = true
	}
	if !rooms[event.StaffRoom] || !rooms[event.TableRoom(tableID)] {
		t.Errorf("rooms = %v, want staff and table rooms", rooms)
	}
}

func TestBridgeFeedsHub(t *testing.T) {
	hub := NewHub(apt.NewNoopLogger())
	sub := NewMockSubscriber()
	bridge := NewBridge(sub, hub, apt.NewNoopLogger())

	if err := bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	handler, ok := sub.Handlers[event.NotificationsTopic]
	if !ok {
		t.Fatal("bridge did not subscribe to the notifications topic")
	}

	ch, cancel := hub.Subscribe(event.StaffRoom)
	defer cancel()

	env := event.Envelope{Room: event.StaffRoom, Event: event.EventOrderUpdated}
	msg, _ := json.Marshal(env)
	if err := handler(context.Background(), msg); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	select {
	case got := <-ch:
		if got.Event != event.EventOrderUpdated {
			t.Errorf("Event = %q, want %q", got.Event, event.EventOrderUpdated)
		}
	default:
		t.Fatal("hub subscriber got nothing")
	}

	if err := handler(context.Background(), []byte("{garbled")); err == nil {
		t.Error("handler accepted garbled envelope, want error")
	}
}
