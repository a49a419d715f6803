package tables

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger apt.Logger
	config *apt.Config
	tlm    *telemetry.HTTP
	repo   TableRepo
}

func NewHandler(repo TableRepo, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
		repo:   repo,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Post("/", h.CreateTable)
		r.Get("/", h.ListTables)
		r.Get("/{id}", h.GetTable)
		r.Get("/token/{token}", h.ResolveToken)
		r.Put("/{id}", h.UpdateTable)
		r.Put("/{id}/activate", h.ActivateTable)
		r.Put("/{id}/deactivate", h.DeactivateTable)
	})
}

type TableCreateRequest struct {
	Number          string     `json:"number"`
	Location        string     `json:"location,omitempty"`
	BillingPeriodID *uuid.UUID `json:"billing_period_id,omitempty"`
}

type TableUpdateRequest struct {
	Number          *string    `json:"number,omitempty"`
	Location        *string    `json:"location,omitempty"`
	BillingPeriodID *uuid.UUID `json:"billing_period_id,omitempty"`
	ClearPeriod     bool       `json:"clear_period,omitempty"`
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req TableCreateRequest
	if !h.decodeBody(w, r, &req, log) {
		return
	}

	if errs := ValidateTableCreate(ctx, req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	table := NewTable()
	table.Number = strings.TrimSpace(req.Number)
	table.Location = req.Location
	table.BillingPeriodID = req.BillingPeriodID
	table.BeforeCreate()

	if err := h.repo.Create(ctx, table); err != nil {
		log.Error("cannot create table", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create table")
		return
	}

	links := apt.RESTfulLinksFor(table)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, table, links...)
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, err := h.repo.Get(ctx, id)
	if err != nil {
		log.Error("error loading table", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve table")
		return
	}

	if table == nil {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	links := apt.RESTfulLinksFor(table)
	apt.RespondSuccess(w, table, links...)
}

// ResolveToken resolves a scanned QR token to its table. Customers hit this
// before they ever know a table id.
func (h *Handler) ResolveToken(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ResolveToken")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	token := chi.URLParam(r, "token")
	if token == "" {
		apt.RespondError(w, http.StatusBadRequest, "Missing token parameter")
		return
	}

	table, err := h.repo.GetByToken(ctx, token)
	if err != nil {
		log.Error("error resolving table token", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not resolve token")
		return
	}

	if table == nil {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	links := apt.RESTfulLinksFor(table)
	apt.RespondSuccess(w, table, links...)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	result, err := h.repo.List(ctx)
	if err != nil {
		log.Error("error retrieving tables", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve tables")
		return
	}

	apt.RespondCollection(w, result, "table")
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, err := h.repo.Get(ctx, id)
	if err != nil || table == nil {
		log.Debug("table not found", "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	var req TableUpdateRequest
	if !h.decodeBody(w, r, &req, log) {
		return
	}

	if req.Number != nil {
		table.Number = strings.TrimSpace(*req.Number)
	}
	if req.Location != nil {
		table.Location = *req.Location
	}
	if req.ClearPeriod {
		table.BillingPeriodID = nil
	} else if req.BillingPeriodID != nil {
		table.BillingPeriodID = req.BillingPeriodID
	}
	table.BeforeUpdate()

	if err := h.repo.Save(ctx, table); err != nil {
		log.Error("cannot update table", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update table")
		return
	}

	links := apt.RESTfulLinksFor(table)
	apt.RespondSuccess(w, table, links...)
}

func (h *Handler) ActivateTable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, "Handler.ActivateTable", true)
}

func (h *Handler) DeactivateTable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, "Handler.DeactivateTable", false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, span string, active bool) {
	w, r, finish := h.tlm.Start(w, r, span)
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, err := h.repo.Get(ctx, id)
	if err != nil || table == nil {
		log.Debug("table not found", "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	if active {
		table.Activate()
	} else {
		table.Deactivate()
	}

	if err := h.repo.Save(ctx, table); err != nil {
		log.Error("cannot update table", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update table")
		return
	}

	links := apt.RESTfulLinksFor(table)
	apt.RespondSuccess(w, table, links...)
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
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
