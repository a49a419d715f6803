package notify

import (
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/cafetab/cafetab/pkg/event"
)

func TestHubRoutesByRoom(t *testing.T) {
	hub := NewHub(apt.NewNoopLogger())

	staff, cancelStaff := hub.Subscribe(event.StaffRoom)
	defer cancelStaff()
	tableRoom := event.TableRoom(uuid.New())
	table, cancelTable := hub.Subscribe(tableRoom)
	defer cancelTable()

	hub.Publish(event.Envelope{Room: event.StaffRoom, Event: event.EventNewOrder})
	hub.Publish(event.Envelope{Room: tableRoom, Event: event.EventOrderUpdated})
	hub.Publish(event.Envelope{Room: event.TableRoom(uuid.New()), Event: event.EventOrderUpdated})

	select {
	case env := <-staff:
		if env.Event != event.EventNewOrder {
			t.Errorf("staff got %q, want %q", env.Event, event.EventNewOrder)
		}
	default:
		t.Fatal("staff subscriber got nothing")
	}

	select {
	case env := <-table:
		if env.Event != event.EventOrderUpdated {
			t.Errorf("table got %q, want %q", env.Event, event.EventOrderUpdated)
		}
	default:
		t.Fatal("table subscriber got nothing")
	}

	select {
	case env := <-table:
		t.Errorf("table got stray envelope for another room: %+v", env)
	default:
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub(apt.NewNoopLogger())

	_, cancel := hub.Subscribe(event.StaffRoom)
	defer cancel()

	// Flood well past the subscriber buffer; Publish must keep returning.
	for i := 0; i < clientBuffer*3; i++ {
		hub.Publish(event.Envelope{Room: event.StaffRoom, Event: event.EventNewOrder})
	}
}

func TestHubCancelRemovesSubscriber(t *testing.T) {
	hub := NewHub(apt.NewNoopLogger())

	ch, cancel := hub.Subscribe(event.StaffRoom)
	if n := hub.RoomSize(event.StaffRoom); n != 1 {
		t.Fatalf("RoomSize() = %d, want 1", n)
	}

	cancel()
	if n := hub.RoomSize(event.StaffRoom); n != 0 {
		t.Errorf("RoomSize() after cancel = %d, want 0", n)
	}
	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}

	// A second cancel is a no-op.
	cancel()
}
