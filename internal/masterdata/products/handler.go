package products

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
	r.Get("/products", h.handleList)
	r.Post("/products", h.handleCreate)
	r.Get("/products/{id}", h.handleGet)
	r.Put("/products/{id}", h.handleUpdate)
	r.Delete("/products/{id}", h.handleDeactivate)
}

type productRequest struct {
	Code           string   `json:"code" validate:"required,max=50"`
	Name           string   `json:"name" validate:"required,max=200"`
	Description    string   `json:"description,omitempty" validate:"max=1000"`
	Unit           string   `json:"unit" validate:"required,max=20"`
	StorageMode    string   `json:"storage_mode" validate:"required,oneof=LOTTED BULK"`
	MinStock       *float64 `json:"min_stock,omitempty" validate:"omitempty,gte=0"`
	RequiresExpiry bool     `json:"requires_expiry"`
	IsActive       *bool    `json:"is_active,omitempty"`
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
		"products":   result,
		"pagination": sharedcore.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), pathID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), product)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decode(w, r)
	if !ok {
		return
	}
	id := pathID(r)
	if err := h.service.Update(r.Context(), id, product); err != nil {
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

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Product, bool) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return Product{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return Product{}, false
	}
	product := Product{
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		Unit:           req.Unit,
		StorageMode:    StorageMode(req.StorageMode),
		MinStock:       req.MinStock,
		RequiresExpiry: req.RequiresExpiry,
		IsActive:       true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	return product, true
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidID), errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrStorageModeLocked):
		httpx.Problem(w, http.StatusConflict, "Storage Mode Locked", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func pathID(r *http.Request) int64 {
	return atoi64(chi.URLParam(r, "id"))
}

func atoi(raw string) int {
	return int(atoi64(raw))
}

func atoi64(raw string) int64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
