package order

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

// Handler exposes the customer-facing order surface: submission, lookup and
// the table's running tab.
type Handler struct {
	logger apt.Logger
	config *apt.Config
	tlm    *telemetry.HTTP
	engine *Engine
}

func NewHandler(engine *Engine, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
		engine: engine,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}/status", h.UpdateOrderStatus)
		r.Put("/{id}/lines/{lineID}/status", h.UpdateLineStatus)
	})
}

type OrderCreateRequest struct {
	TableID      string             `json:"table_id,omitempty"`
	TableToken   string             `json:"table_token,omitempty"`
	CustomerName string             `json:"customer_name"`
	RequestID    string             `json:"request_id,omitempty"`
	Lines        []LineCreateRequest `json:"lines"`
}

type LineCreateRequest struct {
	OfferingID  string `json:"offering_id"`
	Quantity    int    `json:"quantity"`
	Temperature string `json:"temperature,omitempty"`
	ExtraShot   bool   `json:"extra_shot"`
	OatMilk     bool   `json:"oat_milk"`
	Notes       string `json:"notes,omitempty"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var body OrderCreateRequest
	if !decodeBody(w, r, &body, log) {
		return
	}

	req := CreateRequest{
		TableToken:   body.TableToken,
		CustomerName: body.CustomerName,
		RequestID:    body.RequestID,
	}
	if req.RequestID == "" {
		req.RequestID = r.Header.Get("X-Request-ID")
	}
	if body.TableID != "" {
		id, err := uuid.Parse(body.TableID)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid table_id")
			return
		}
		req.TableID = id
	}
	for _, l := range body.Lines {
		offeringID, err := uuid.Parse(l.OfferingID)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid offering_id")
			return
		}
		req.Lines = append(req.Lines, CreateLine{
			OfferingID:  offeringID,
			Quantity:    l.Quantity,
			Temperature: l.Temperature,
			ExtraShot:   l.ExtraShot,
			OatMilk:     l.OatMilk,
			Notes:       l.Notes,
		})
	}

	o, replayed, err := h.engine.Create(ctx, req)
	if err != nil {
		h.respondEngineError(w, err, log, "cannot create order")
		return
	}

	links := apt.RESTfulLinksFor(o)
	if replayed {
		apt.RespondSuccess(w, o, links...)
		return
	}
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, "id", log)
	if !ok {
		return
	}

	o, err := h.engine.Get(ctx, id)
	if err != nil {
		h.respondEngineError(w, err, log, "cannot get order")
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableStr := r.URL.Query().Get("table_id")
	if tableStr == "" {
		apt.RespondError(w, http.StatusBadRequest, "Missing table_id parameter")
		return
	}
	tableID, err := uuid.Parse(tableStr)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid table_id parameter")
		return
	}

	orders, err := h.engine.ListForTable(ctx, tableID)
	if err != nil {
		h.respondEngineError(w, err, log, "cannot list orders")
		return
	}

	apt.RespondCollection(w, orders, "order")
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrderStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, "id", log)
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if !decodeBody(w, r, &req, log) {
		return
	}

	o, err := h.engine.TransitionOrder(ctx, id, req.Status, r.Header.Get("X-Staff-ID"))
	if err != nil {
		h.respondEngineError(w, err, log, "cannot update order status")
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) UpdateLineStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateLineStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	orderID, ok := h.parseIDParam(w, r, "id", log)
	if !ok {
		return
	}
	lineID, ok := h.parseIDParam(w, r, "lineID", log)
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if !decodeBody(w, r, &req, log) {
		return
	}

	o, err := h.engine.TransitionLine(ctx, orderID, lineID, req.Status)
	if err != nil {
		h.respondEngineError(w, err, log, "cannot update line status")
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) respondEngineError(w http.ResponseWriter, err error, log apt.Logger, msg string) {
	if derr, ok := AsError(err); ok {
		switch {
		case NotFound(derr.Kind):
			apt.RespondError(w, http.StatusNotFound, derr.Message)
		case derr.Kind == KindOrderingClosed:
			apt.RespondError(w, http.StatusConflict, derr.Message)
		default:
			apt.RespondError(w, http.StatusBadRequest, derr.Message)
		}
		return
	}
	log.Error(msg, "error", err)
	apt.RespondError(w, http.StatusInternalServerError, "Internal server error")
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, name string, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, name)
	if idStr == "" {
		log.Debug("missing id parameter", "param", name)
		apt.RespondError(w, http.StatusBadRequest, "Missing "+name+" parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "param", name, "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}

	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}, log apt.Logger) bool {
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
