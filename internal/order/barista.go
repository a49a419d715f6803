package order

import (
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cafetab/cafetab/pkg/enums/orderstatus"
)

// BaristaHandler exposes the staff work surface: board views, the dashboard
// and one-step lifecycle shortcuts.
type BaristaHandler struct {
	logger apt.Logger
	config *apt.Config
	tlm    *telemetry.HTTP
	engine *Engine
}

func NewBaristaHandler(engine *Engine, config *apt.Config, logger apt.Logger) *BaristaHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BaristaHandler{
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
		engine: engine,
	}
}

func (h *BaristaHandler) RegisterRoutes(r chi.Router) {
	r.Route("/barista", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/orders/{view}", h.BoardOrders)
		r.Put("/orders/{id}/start", h.shortcut(orderstatus.Statuses.Preparing.Name))
		r.Put("/orders/{id}/complete", h.shortcut(orderstatus.Statuses.Ready.Name))
		r.Put("/orders/{id}/dispatch", h.shortcut(orderstatus.Statuses.Completed.Name))
		r.Put("/orders/{id}/cancel", h.shortcut(orderstatus.Statuses.Cancelled.Name))
	})
}

func (h *BaristaHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BaristaHandler.Dashboard")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	dashboard, err := h.engine.Dashboard(ctx)
	if err != nil {
		log.Error("cannot build dashboard", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not build dashboard")
		return
	}

	apt.RespondSuccess(w, dashboard)
}

func (h *BaristaHandler) BoardOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BaristaHandler.BoardOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	view := chi.URLParam(r, "view")
	orders, err := h.engine.BoardOrders(ctx, view)
	if err != nil {
		if derr, ok := AsError(err); ok {
			apt.RespondError(w, http.StatusBadRequest, derr.Message)
			return
		}
		log.Error("cannot list board orders", "error", err, "view", view)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve orders")
		return
	}

	apt.RespondCollection(w, orders, "order")
}

func (h *BaristaHandler) shortcut(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w, r, finish := h.tlm.Start(w, r, "BaristaHandler.Shortcut")
		defer finish()

		log := h.log(r)
		ctx := r.Context()

		idStr := chi.URLParam(r, "id")
		id, err := uuid.Parse(idStr)
		if err != nil {
			log.Debug("invalid id parameter", "id", idStr)
			apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
			return
		}

		o, terr := h.engine.ShortcutOrder(ctx, id, status, r.Header.Get("X-Staff-ID"))
		if terr != nil {
			if derr, ok := AsError(terr); ok {
				if NotFound(derr.Kind) {
					apt.RespondError(w, http.StatusNotFound, derr.Message)
					return
				}
				apt.RespondError(w, http.StatusBadRequest, derr.Message)
				return
			}
			log.Error("cannot transition order", "error", terr, "id", id.String(), "status", status)
			apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
			return
		}

		links := apt.RESTfulLinksFor(o)
		apt.RespondSuccess(w, o, links...)
	}
}

func (h *BaristaHandler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
