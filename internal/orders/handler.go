package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Lightwin075/RossiChatllm2/internal/platform/httpx"
	"github.com/Lightwin075/RossiChatllm2/internal/shared"
)

// Handler wires HTTP endpoints for the orders module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the orders handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.handleList)
	r.Post("/orders", h.handleCreate)
	r.Get("/orders/{orderID}", h.handleGet)
	r.Put("/orders/{orderID}", h.handleEdit)
	r.Delete("/orders/{orderID}", h.handleDelete)
	r.Post("/orders/{orderID}/advance", h.handleAdvance)
	r.Post("/orders/{orderID}/clone", h.handleClone)
}

type lineRequest struct {
	ProductID int64  `json:"product_id" validate:"required"`
	Qty       string `json:"qty" validate:"required"`
	UnitCost  string `json:"unit_cost" validate:"required"`
}

type orderRequest struct {
	SupplierID       int64         `json:"supplier_id" validate:"required"`
	EstimatedArrival *string       `json:"estimated_arrival,omitempty"`
	TaxRate          *string       `json:"tax_rate,omitempty"`
	Note             string        `json:"note,omitempty" validate:"max=1000"`
	Lines            []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type advanceRequest struct {
	Status string `json:"status" validate:"required,oneof=ISSUED RECEIVED PAID"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeOrderRequest(w, r)
	if !ok {
		return
	}
	order, err := h.service.Create(r.Context(), CreateInput{
		SupplierID:       input.SupplierID,
		EstimatedArrival: input.EstimatedArrival,
		TaxRate:          input.TaxRate,
		Note:             input.Note,
		Lines:            input.Lines,
		ActorID:          actorID(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "orderID")
	if id == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Order", "order id must be numeric")
		return
	}
	input, ok := h.decodeOrderRequest(w, r)
	if !ok {
		return
	}
	order, err := h.service.Edit(r.Context(), id, EditInput{
		SupplierID:       input.SupplierID,
		EstimatedArrival: input.EstimatedArrival,
		TaxRate:          input.TaxRate,
		Note:             input.Note,
		Lines:            input.Lines,
		ActorID:          actorID(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "orderID")
	if id == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Order", "order id must be numeric")
		return
	}
	var req advanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Advance(r.Context(), id, Status(req.Status), actorID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "orderID")
	if id == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Order", "order id must be numeric")
		return
	}
	if err := h.service.Delete(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClone(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "orderID")
	if id == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Order", "order id must be numeric")
		return
	}
	order, err := h.service.Clone(r.Context(), id, actorID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "orderID")
	if id == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Order", "order id must be numeric")
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		SupplierID: queryInt64(q.Get("supplier_id")),
		Status:     Status(q.Get("status")),
		Page:       int(queryInt64(q.Get("page"))),
		PerPage:    int(queryInt64(q.Get("per_page"))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "unknown status")
		return
	}
	result, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders":     result,
		"pagination": shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

type decodedOrder struct {
	SupplierID       int64
	EstimatedArrival *time.Time
	TaxRate          *decimal.Decimal
	Note             string
	Lines            []LineInput
}

func (h *Handler) decodeOrderRequest(w http.ResponseWriter, r *http.Request) (decodedOrder, bool) {
	var req orderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return decodedOrder{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return decodedOrder{}, false
	}
	out := decodedOrder{SupplierID: req.SupplierID, Note: req.Note}
	if req.EstimatedArrival != nil {
		arrival, err := time.Parse("2006-01-02", *req.EstimatedArrival)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Arrival Date", "estimated_arrival must be yyyy-mm-dd")
			return decodedOrder{}, false
		}
		out.EstimatedArrival = &arrival
	}
	if req.TaxRate != nil {
		rate, err := decimal.NewFromString(*req.TaxRate)
		if err != nil || rate.IsNegative() {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Tax Rate", "tax_rate must be a non-negative decimal")
			return decodedOrder{}, false
		}
		out.TaxRate = &rate
	}
	out.Lines = make([]LineInput, len(req.Lines))
	for i, line := range req.Lines {
		qty, err := decimal.NewFromString(line.Qty)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Line", "qty must be a decimal")
			return decodedOrder{}, false
		}
		cost, err := decimal.NewFromString(line.UnitCost)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Line", "unit_cost must be a decimal")
			return decodedOrder{}, false
		}
		out.Lines[i] = LineInput{ProductID: line.ProductID, Qty: qty, UnitCost: cost}
	}
	return out, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrEmptyLines), errors.Is(err, ErrInvalidLine):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Order", err.Error())
	case errors.Is(err, ErrNotEditable),
		errors.Is(err, ErrInvalidStatusTransition),
		errors.Is(err, ErrTerminalStatus),
		errors.Is(err, ErrHasPayments):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	default:
		h.logger.Error("orders request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func actorID(r *http.Request) int64 {
	return queryInt64(r.Header.Get("X-Actor-Id"))
}

func pathID(r *http.Request, name string) int64 {
	return queryInt64(chi.URLParam(r, name))
}

func queryInt64(raw string) int64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
