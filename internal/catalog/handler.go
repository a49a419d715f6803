package catalog

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

// Handler exposes the staff-facing catalog admin surface plus the public
// availability listing the ordering flow reads.
type Handler struct {
	logger apt.Logger
	config *apt.Config
	tlm    *telemetry.HTTP
	repo   OfferingRepo
}

func NewHandler(repo OfferingRepo, config *apt.Config, logger apt.Logger) *Handler {
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
	r.Route("/menu", func(r chi.Router) {
		r.Post("/", h.CreateOffering)
		r.Get("/", h.ListOfferings)
		r.Get("/{id}", h.GetOffering)
		r.Put("/{id}", h.UpdateOffering)
		r.Put("/{id}/availability", h.SetAvailability)
	})
}

type OfferingCreateRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Category       string  `json:"category"`
	BasePrice      float64 `json:"base_price"`
	ImageURL       string  `json:"image_url,omitempty"`
	PrepMinutes    int     `json:"prep_minutes,omitempty"`
	Temperature    string  `json:"temperature,omitempty"`
	AllowExtraShot bool    `json:"allow_extra_shot"`
	AllowOatMilk   bool    `json:"allow_oat_milk"`
}

type OfferingUpdateRequest struct {
	Name           *string  `json:"name,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Category       *string  `json:"category,omitempty"`
	BasePrice      *float64 `json:"base_price,omitempty"`
	ImageURL       *string  `json:"image_url,omitempty"`
	PrepMinutes    *int     `json:"prep_minutes,omitempty"`
	Temperature    *string  `json:"temperature,omitempty"`
	AllowExtraShot *bool    `json:"allow_extra_shot,omitempty"`
	AllowOatMilk   *bool    `json:"allow_oat_milk,omitempty"`
}

type AvailabilityRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) CreateOffering(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOffering")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req OfferingCreateRequest
	if !decodeBody(w, r, &req, log) {
		return
	}

	if errs := ValidateOfferingCreate(ctx, req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	offering := NewOffering()
	offering.Name = strings.TrimSpace(req.Name)
	offering.Description = req.Description
	offering.Category = strings.TrimSpace(req.Category)
	offering.BasePrice = req.BasePrice
	offering.ImageURL = req.ImageURL
	if req.PrepMinutes > 0 {
		offering.PrepMinutes = req.PrepMinutes
	}
	if req.Temperature != "" {
		offering.Temperature = req.Temperature
	}
	offering.AllowExtraShot = req.AllowExtraShot
	offering.AllowOatMilk = req.AllowOatMilk
	offering.BeforeCreate()

	if err := h.repo.Create(ctx, offering); err != nil {
		log.Error("cannot create offering", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create offering")
		return
	}

	links := apt.RESTfulLinksFor(offering)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, offering, links...)
}

func (h *Handler) GetOffering(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOffering")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	offering, err := h.repo.Get(ctx, id)
	if err != nil {
		log.Error("error loading offering", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve offering")
		return
	}

	if offering == nil {
		apt.RespondError(w, http.StatusNotFound, "Offering not found")
		return
	}

	links := apt.RESTfulLinksFor(offering)
	apt.RespondSuccess(w, offering, links...)
}

func (h *Handler) ListOfferings(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOfferings")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var offerings []*Offering
	var err error

	if r.URL.Query().Get("available") == "true" {
		offerings, err = h.repo.ListAvailable(ctx)
	} else {
		offerings, err = h.repo.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving offerings", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve offerings")
		return
	}

	apt.RespondCollection(w, offerings, "offering")
}

func (h *Handler) UpdateOffering(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOffering")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	offering, err := h.repo.Get(ctx, id)
	if err != nil || offering == nil {
		log.Debug("offering not found", "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Offering not found")
		return
	}

	var req OfferingUpdateRequest
	if !decodeBody(w, r, &req, log) {
		return
	}

	if errs := ValidateOfferingUpdate(ctx, req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	if req.Name != nil {
		offering.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		offering.Description = *req.Description
	}
	if req.Category != nil {
		offering.Category = strings.TrimSpace(*req.Category)
	}
	if req.BasePrice != nil {
		offering.BasePrice = *req.BasePrice
	}
	if req.ImageURL != nil {
		offering.ImageURL = *req.ImageURL
	}
	if req.PrepMinutes != nil {
		offering.PrepMinutes = *req.PrepMinutes
	}
	if req.Temperature != nil {
		offering.Temperature = *req.Temperature
	}
	if req.AllowExtraShot != nil {
		offering.AllowExtraShot = *req.AllowExtraShot
	}
	if req.AllowOatMilk != nil {
		offering.AllowOatMilk = *req.AllowOatMilk
	}
	offering.BeforeUpdate()

	if err := h.repo.Save(ctx, offering); err != nil {
		log.Error("cannot update offering", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update offering")
		return
	}

	links := apt.RESTfulLinksFor(offering)
	apt.RespondSuccess(w, offering, links...)
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetAvailability")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	offering, err := h.repo.Get(ctx, id)
	if err != nil || offering == nil {
		log.Debug("offering not found", "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Offering not found")
		return
	}

	var req AvailabilityRequest
	if !decodeBody(w, r, &req, log) {
		return
	}

	offering.Active = req.Active
	offering.BeforeUpdate()

	if err := h.repo.Save(ctx, offering); err != nil {
		log.Error("cannot update offering availability", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update offering")
		return
	}

	links := apt.RESTfulLinksFor(offering)
	apt.RespondSuccess(w, offering, links...)
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
