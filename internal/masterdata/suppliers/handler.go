package suppliers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
	"github.com/Lightwin075/RossiChatllm2/internal/platform/httpx"
	sharedcore "github.com/Lightwin075/RossiChatllm2/internal/shared"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service, validate *validator.Validate) *Handler {
	return &Handler{service: service, validate: validate}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/suppliers", h.handleList)
	r.Post("/suppliers", h.handleCreate)
	r.Get("/suppliers/{id}", h.handleGet)
	r.Put("/suppliers/{id}", h.handleUpdate)
	r.Delete("/suppliers/{id}", h.handleDeactivate)
}

type supplierRequest struct {
	Type     string   `json:"type" validate:"required,oneof=RECURRING CONTRACT"`
	Name     string   `json:"name" validate:"required,max=200"`
	RUC      string   `json:"ruc" validate:"required,len=13,numeric"`
	Email    string   `json:"email,omitempty" validate:"omitempty,email"`
	Phones   []string `json:"phones,omitempty" validate:"dive,max=30"`
	Address  string   `json:"address,omitempty" validate:"max=500"`
	IsActive *bool    `json:"is_active,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := shared.ListFilters{
		Page:   atoi(q.Get("page")),
		Limit:  atoi(q.Get("limit")),
		Search: q.Get("search"),
	}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}
	result, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		respondError(w, err)
		return
	}
	filters.Normalize()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"suppliers":  result,
		"pagination": sharedcore.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.service.Get(r.Context(), pathID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	supplier, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), supplier)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	supplier, ok := h.decode(w, r)
	if !ok {
		return
	}
	id := pathID(r)
	if err := h.service.Update(r.Context(), id, supplier); err != nil {
		respondError(w, err)
		return
	}
	updated, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.Context(), pathID(r)); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Supplier, bool) {
	var req supplierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return Supplier{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return Supplier{}, false
	}
	supplier := Supplier{
		Type:     SupplierType(req.Type),
		Name:     req.Name,
		RUC:      req.RUC,
		Email:    req.Email,
		Phones:   req.Phones,
		Address:  req.Address,
		IsActive: true,
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	return supplier, true
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidID), errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func pathID(r *http.Request) int64 {
	v, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func atoi(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
