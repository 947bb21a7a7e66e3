package warehouses

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
	r.Get("/warehouses", h.handleList)
	r.Post("/warehouses", h.handleCreate)
	r.Get("/warehouses/{id}", h.handleGet)
	r.Put("/warehouses/{id}", h.handleUpdate)
	r.Delete("/warehouses/{id}", h.handleDeactivate)
}

type warehouseRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Location    string   `json:"location,omitempty" validate:"max=500"`
	Responsible string   `json:"responsible,omitempty" validate:"max=200"`
	Capacity    *float64 `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	IsActive    *bool    `json:"is_active,omitempty"`
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
		"warehouses": result,
		"pagination": sharedcore.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	warehouse, err := h.service.Get(r.Context(), pathID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, warehouse)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	warehouse, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), warehouse)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	warehouse, ok := h.decode(w, r)
	if !ok {
		return
	}
	id := pathID(r)
	if err := h.service.Update(r.Context(), id, warehouse); err != nil {
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

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Warehouse, bool) {
	var req warehouseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return Warehouse{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return Warehouse{}, false
	}
	warehouse := Warehouse{
		Name:        req.Name,
		Location:    req.Location,
		Responsible: req.Responsible,
		Capacity:    req.Capacity,
		IsActive:    true,
	}
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}
	return warehouse, true
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidID), errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func pathID(r *http.Request) int64 {
	raw := chi.URLParam(r, "id")
	v, err := strconv.ParseInt(raw, 10, 64)
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
