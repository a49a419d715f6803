package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cafetab/cafetab/pkg/event"
)

const MaxBodyBytes = 1 << 20

// Stream tuning. The retry hint tells reconnecting clients how long to back
// off; keepalives stop idle proxies from reaping the connection.
const (
	streamRetry       = 3 * time.Second
	keepaliveInterval = 25 * time.Second
)

// Handler exposes the notification stream and the delivery settings clients
// use to pick between streaming and polling.
type Handler struct {
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
	hub      *Hub
	settings SettingsRepo
}

func NewHandler(hub *Hub, settings SettingsRepo, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:   logger,
		config:   config,
		tlm:      telemetry.NewHTTP(),
		hub:      hub,
		settings: settings,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications/stream", h.Stream)
	r.Route("/settings/notifications", func(r chi.Router) {
		r.Get("/", h.GetSettings)
		r.Put("/", h.UpdateSettings)
	})
}

// Stream serves server-sent events for one room: staff pass room=staff, table
// clients pass their table_id.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	ctx := r.Context()

	room, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		apt.RespondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "retry: %d\n\n", streamRetry.Milliseconds())
	flusher.Flush()

	ch, cancel := h.hub.Subscribe(room)
	defer cancel()

	log.Debug("stream opened", "room", room)

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("stream closed", "room", room)
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case env, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Event, env.Data)
			flusher.Flush()
		}
	}
}

func (h *Handler) resolveRoom(w http.ResponseWriter, r *http.Request) (string, bool) {
	if tableStr := r.URL.Query().Get("table_id"); tableStr != "" {
		tableID, err := uuid.Parse(tableStr)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid table_id parameter")
			return "", false
		}
		return event.TableRoom(tableID), true
	}
	if r.URL.Query().Get("room") == event.StaffRoom {
		return event.StaffRoom, true
	}
	apt.RespondError(w, http.StatusBadRequest, "Missing room or table_id parameter")
	return "", false
}

type SettingsUpdateRequest struct {
	PushEnabled     *bool `json:"push_enabled,omitempty"`
	PollingEnabled  *bool `json:"polling_enabled,omitempty"`
	PollingInterval *int  `json:"polling_interval,omitempty"`
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSettings")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	settings, err := h.settings.Get(ctx)
	if err != nil {
		log.Error("cannot load notification settings", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve settings")
		return
	}
	if settings == nil {
		settings = DefaultSettings()
	}

	apt.RespondSuccess(w, settings)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateSettings")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req SettingsUpdateRequest
	if !h.decodeBody(w, r, &req, log) {
		return
	}

	settings, err := h.settings.Get(ctx)
	if err != nil {
		log.Error("cannot load notification settings", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve settings")
		return
	}
	if settings == nil {
		settings = DefaultSettings()
	}

	if req.PushEnabled != nil {
		settings.PushEnabled = *req.PushEnabled
	}
	if req.PollingEnabled != nil {
		settings.PollingEnabled = *req.PollingEnabled
	}
	if req.PollingInterval != nil {
		settings.PollingInterval = *req.PollingInterval
	}
	settings.ClampPolling()
	settings.UpdatedBy = r.Header.Get("X-Staff-ID")
	settings.BeforeUpdate()

	if err := h.settings.Save(ctx, settings); err != nil {
		log.Error("cannot save notification settings", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update settings")
		return
	}

	apt.RespondSuccess(w, settings)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, target interface{}, log apt.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, target); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
