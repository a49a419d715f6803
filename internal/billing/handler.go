package billing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger     apt.Logger
	config     *apt.Config
	tlm        *telemetry.HTTP
	repo       PeriodRepo
	aggregator *Aggregator
	reporter   OrderReporter
}

func NewHandler(repo PeriodRepo, aggregator *Aggregator, reporter OrderReporter, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:     logger,
		config:     config,
		tlm:        telemetry.NewHTTP(),
		repo:       repo,
		aggregator: aggregator,
		reporter:   reporter,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/billing-periods", func(r chi.Router) {
		r.Post("/", h.CreatePeriod)
		r.Get("/", h.ListPeriods)
		r.Get("/active/current", h.GetActivePeriod)
		r.Get("/{id}", h.GetPeriod)
		r.Put("/{id}", h.UpdatePeriod)
		r.Put("/{id}/activate", h.ActivatePeriod)
		r.Put("/{id}/deactivate", h.DeactivatePeriod)
		r.Put("/{id}/close", h.ClosePeriod)
	})

	r.Route("/bills", func(r chi.Router) {
		r.Get("/summary/{id}", h.BillSummary)
		r.Get("/detailed/{id}", h.BillDetailed)
	})
}

type PeriodCreateRequest struct {
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

type PeriodUpdateRequest struct {
	Name      *string    `json:"name,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Bill is the reporting shape for one period's tab.
type Bill struct {
	PeriodID    uuid.UUID   `json:"billing_period_id"`
	Name        string      `json:"name"`
	TotalAmount float64     `json:"total_amount"`
	OrderCount  int         `json:"order_count"`
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	Status      string      `json:"status"`
	Orders      []BillOrder `json:"orders,omitempty"`
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreatePeriod")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req PeriodCreateRequest
	if !h.decodeBody(w, r, &req, log) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		apt.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}

	period := NewPeriod()
	period.Name = strings.TrimSpace(req.Name)
	if req.StartDate != nil {
		period.StartDate = req.StartDate
	}
	period.EndDate = req.EndDate
	period.BeforeCreate()

	if err := h.repo.Create(ctx, period); err != nil {
		log.Error("cannot create billing period", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create billing period")
		return
	}

	links := apt.RESTfulLinksFor(period)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, period, links...)
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetPeriod")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	period, err := h.repo.Get(ctx, id)
	if err != nil {
		log.Error("error loading billing period", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve billing period")
		return
	}

	if period == nil {
		apt.RespondError(w, http.StatusNotFound, "Billing period not found")
		return
	}

	links := apt.RESTfulLinksFor(period)
	apt.RespondSuccess(w, period, links...)
}

// GetActivePeriod is public: the ordering flow uses it to decide whether
// self-service ordering is currently open at all.
func (h *Handler) GetActivePeriod(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetActivePeriod")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	period, err := h.repo.GetActive(ctx)
	if err != nil {
		log.Error("error loading active billing period", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve active billing period")
		return
	}

	if period == nil {
		apt.RespondError(w, http.StatusNotFound, "No active billing period")
		return
	}

	links := apt.RESTfulLinksFor(period)
	apt.RespondSuccess(w, period, links...)
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListPeriods")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	periods, err := h.repo.List(ctx)
	if err != nil {
		log.Error("error retrieving billing periods", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve billing periods")
		return
	}

	apt.RespondCollection(w, periods, "billing-period")
}

func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdatePeriod")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	period, err := h.repo.Get(ctx, id)
	if err != nil || period == nil {
		log.Debug("billing period not found", "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Billing period not found")
		return
	}

	var req PeriodUpdateRequest
	if !h.decodeBody(w, r, &req, log) {
		return
	}

	if req.Name != nil {
		period.Name = strings.TrimSpace(*req.Name)
	}
	if req.StartDate != nil {
		period.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		period.EndDate = req.EndDate
	}
	period.BeforeUpdate()

	if err := h.repo.Save(ctx, period); err != nil {
		log.Error("cannot update billing period", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update billing period")
		return
	}

	links := apt.RESTfulLinksFor(period)
	apt.RespondSuccess(w, period, links...)
}

func (h *Handler) ActivatePeriod(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ActivatePeriod")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	period, err := h.aggregator.Activate(ctx, id)
	if err != nil {
		h.respondAggregatorError(w, log, err, id, "Could not activate billing period")
		return
	}

	links := apt.RESTfulLinksFor(period)
	apt.RespondSuccess(w, period, links...)
}

func (h *Handler) DeactivatePeriod(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeactivatePeriod")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	period, err := h.aggregator.Deactivate(ctx, id)
	if err != nil {
		h.respondAggregatorError(w, log, err, id, "Could not deactivate billing period")
		return
	}

	links := apt.RESTfulLinksFor(period)
	apt.RespondSuccess(w, period, links...)
}

func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClosePeriod")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	period, err := h.aggregator.Close(ctx, id)
	if err != nil {
		h.respondAggregatorError(w, log, err, id, "Could not close billing period")
		return
	}

	links := apt.RESTfulLinksFor(period)
	apt.RespondSuccess(w, period, links...)
}

// BillSummary recomputes and reports a period's tab totals.
func (h *Handler) BillSummary(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.BillSummary")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	period, err := h.aggregator.Recompute(ctx, id)
	if err != nil {
		h.respondAggregatorError(w, log, err, id, "Could not compute bill")
		return
	}

	apt.Respond(w, http.StatusOK, h.billFor(period, nil), nil)
}

// BillDetailed recomputes and reports the tab including every member order.
func (h *Handler) BillDetailed(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.BillDetailed")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	period, err := h.aggregator.Recompute(ctx, id)
	if err != nil {
		h.respondAggregatorError(w, log, err, id, "Could not compute bill")
		return
	}

	orders, err := h.reporter.OrdersForPeriod(ctx, id)
	if err != nil {
		log.Error("cannot list bill orders", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve bill orders")
		return
	}

	apt.Respond(w, http.StatusOK, h.billFor(period, orders), nil)
}

func (h *Handler) billFor(period *Period, orders []BillOrder) Bill {
	status := "completed"
	if period.Active {
		status = "active"
	}
	return Bill{
		PeriodID:    period.ID,
		Name:        period.Name,
		TotalAmount: period.TotalAmount,
		OrderCount:  period.OrderCount,
		StartDate:   period.StartDate,
		EndDate:     period.EndDate,
		Status:      status,
		Orders:      orders,
	}
}

// respondAggregatorError maps a lookup miss to 404 and everything else to 500.
func (h *Handler) respondAggregatorError(w http.ResponseWriter, log apt.Logger, err error, id uuid.UUID, message string) {
	if errors.Is(err, ErrPeriodNotFound) {
		log.Debug("billing period not found", "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Billing period not found")
		return
	}
	log.Error(message, "error", err, "id", id.String())
	apt.RespondError(w, http.StatusInternalServerError, message)
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
