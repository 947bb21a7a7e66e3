package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Lightwin075/RossiChatllm2/internal/observability"
	"github.com/Lightwin075/RossiChatllm2/internal/platform/httpx"
	"github.com/Lightwin075/RossiChatllm2/internal/shared"
	"github.com/Lightwin075/RossiChatllm2/internal/stockcache"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	cache    *stockcache.Cache
	metrics  *observability.Metrics
}

// NewHandler constructs the inventory handler. Cache and metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, cache *stockcache.Cache, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, cache: cache, metrics: metrics}
}

// moved is the post-commit hook shared by the movement endpoints: it counts
// the movement and invalidates cached overviews.
func (h *Handler) moved(r *http.Request, mov Movement) {
	h.metrics.ObserveMovement(string(mov.Type))
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("stock cache bump", slog.Any("error", err))
	}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/movements", h.handleListMovements)
	r.Post("/movements/receipts", h.handleReceipt)
	r.Post("/movements/issues", h.handleIssue)
	r.Post("/movements/transfers", h.handleTransfer)
	r.Post("/movements/adjustments", h.handleAdjustment)
	r.Get("/batches", h.handleListBatches)
	r.Get("/stock", h.handleStockOverview)
	r.Get("/stock/{productID}", h.handleCurrentStock)
	r.Get("/stock/{productID}/replay", h.handleReplayStock)
}

type receiptRequest struct {
	ProductID   int64   `json:"product_id" validate:"required"`
	WarehouseID int64   `json:"warehouse_id" validate:"required"`
	Qty         float64 `json:"qty" validate:"required,gt=0"`
	BatchID     int64   `json:"batch_id,omitempty"`
	ExpiryDate  *string `json:"expiry_date,omitempty"`
	Reason      string  `json:"reason,omitempty" validate:"max=500"`
	RefID       string  `json:"ref_id,omitempty" validate:"omitempty,uuid"`
}

type issueRequest struct {
	ProductID   int64   `json:"product_id" validate:"required"`
	WarehouseID int64   `json:"warehouse_id" validate:"required"`
	Qty         float64 `json:"qty" validate:"required,gt=0"`
	BatchID     int64   `json:"batch_id,omitempty"`
	Reason      string  `json:"reason,omitempty" validate:"max=500"`
	RefID       string  `json:"ref_id,omitempty" validate:"omitempty,uuid"`
}

type transferRequest struct {
	ProductID      int64   `json:"product_id" validate:"required"`
	SrcWarehouseID int64   `json:"src_warehouse_id" validate:"required"`
	DstWarehouseID int64   `json:"dst_warehouse_id" validate:"required"`
	Qty            float64 `json:"qty" validate:"required,gt=0"`
	BatchID        int64   `json:"batch_id,omitempty"`
	DstBatchID     int64   `json:"dst_batch_id,omitempty"`
	Reason         string  `json:"reason,omitempty" validate:"max=500"`
	RefID          string  `json:"ref_id,omitempty" validate:"omitempty,uuid"`
}

type adjustmentRequest struct {
	ProductID   int64   `json:"product_id" validate:"required"`
	WarehouseID int64   `json:"warehouse_id" validate:"required"`
	Qty         float64 `json:"qty" validate:"required"`
	BatchID     int64   `json:"batch_id,omitempty"`
	Reason      string  `json:"reason" validate:"required,max=500"`
	RefID       string  `json:"ref_id,omitempty" validate:"omitempty,uuid"`
}

type batchResponse struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	ProductID       int64      `json:"product_id"`
	WarehouseID     int64      `json:"warehouse_id"`
	BatchNumber     int        `json:"batch_number"`
	InitialQuantity float64    `json:"initial_quantity"`
	CurrentQuantity float64    `json:"current_quantity"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toBatchResponse(b Batch) batchResponse {
	return batchResponse(b)
}

func (h *Handler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := ReceiveInput{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Qty:         req.Qty,
		BatchID:     req.BatchID,
		Reason:      req.Reason,
		ActorID:     actorID(r),
		RefID:       req.RefID,
	}
	if req.ExpiryDate != nil {
		expiry, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Expiry Date", "expiry_date must be yyyy-mm-dd")
			return
		}
		input.ExpiryDate = &expiry
	}
	result, err := h.service.Receive(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.moved(r, result.Movement)
	resp := map[string]any{"movement": result.Movement}
	if result.Batch != nil {
		resp["batch"] = toBatchResponse(*result.Batch)
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mov, err := h.service.Issue(r.Context(), IssueInput{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Qty:         req.Qty,
		BatchID:     req.BatchID,
		Reason:      req.Reason,
		ActorID:     actorID(r),
		RefID:       req.RefID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.moved(r, mov)
	httpx.JSON(w, http.StatusCreated, map[string]any{"movement": mov})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mov, err := h.service.Transfer(r.Context(), TransferInput{
		ProductID:      req.ProductID,
		SrcWarehouseID: req.SrcWarehouseID,
		DstWarehouseID: req.DstWarehouseID,
		Qty:            req.Qty,
		BatchID:        req.BatchID,
		DstBatchID:     req.DstBatchID,
		Reason:         req.Reason,
		ActorID:        actorID(r),
		RefID:          req.RefID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.moved(r, mov)
	httpx.JSON(w, http.StatusCreated, map[string]any{"movement": mov})
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mov, err := h.service.Adjust(r.Context(), AdjustInput{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Qty:         req.Qty,
		BatchID:     req.BatchID,
		Reason:      req.Reason,
		ActorID:     actorID(r),
		RefID:       req.RefID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.moved(r, mov)
	httpx.JSON(w, http.StatusCreated, map[string]any{"movement": mov})
}

func (h *Handler) handleListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := MovementFilter{
		ProductID:   queryInt64(q.Get("product_id")),
		WarehouseID: queryInt64(q.Get("warehouse_id")),
		Type:        MovementType(q.Get("type")),
		BeforeSeq:   queryInt64(q.Get("before_seq")),
		Limit:       int(queryInt64(q.Get("limit"))),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "from must be RFC3339")
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "to must be RFC3339")
			return
		}
		filter.To = t
	}
	movements, err := h.service.Query(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var nextCursor int64
	if len(movements) > 0 {
		nextCursor = movements[len(movements)-1].Seq
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"movements":   movements,
		"next_cursor": nextCursor,
	})
}

func (h *Handler) handleListBatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := BatchFilter{
		ProductID:          queryInt64(q.Get("product_id")),
		WarehouseID:        queryInt64(q.Get("warehouse_id")),
		ExpiringWithinDays: int(queryInt64(q.Get("expiring_within_days"))),
		Page:               int(queryInt64(q.Get("page"))),
		PerPage:            int(queryInt64(q.Get("per_page"))),
	}
	batches, total, err := h.service.ListBatches(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	items := make([]batchResponse, 0, len(batches))
	for _, b := range batches {
		items = append(items, toBatchResponse(b))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"batches":    items,
		"pagination": shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

func (h *Handler) handleStockOverview(w http.ResponseWriter, r *http.Request) {
	warehouseID := queryInt64(r.URL.Query().Get("warehouse_id"))
	key, err := h.cache.OverviewKey(r.Context(), warehouseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var infos []StockInfo
	err = h.cache.FetchJSON(r.Context(), key, &infos, func(ctx context.Context) (interface{}, error) {
		return h.service.StockOverview(ctx, warehouseID)
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stock": infos})
}

func (h *Handler) handleCurrentStock(w http.ResponseWriter, r *http.Request) {
	productID := queryInt64(chi.URLParam(r, "productID"))
	if productID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Product", "product id must be numeric")
		return
	}
	info, err := h.service.CurrentStock(r.Context(), productID, queryInt64(r.URL.Query().Get("warehouse_id")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

func (h *Handler) handleReplayStock(w http.ResponseWriter, r *http.Request) {
	productID := queryInt64(chi.URLParam(r, "productID"))
	if productID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Product", "product id must be numeric")
		return
	}
	warehouseID := queryInt64(r.URL.Query().Get("warehouse_id"))
	replayed, err := h.service.ReplayStock(r.Context(), productID, warehouseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	current, err := h.service.CurrentStock(r.Context(), productID, warehouseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product_id":   productID,
		"warehouse_id": warehouseID,
		"replayed":     replayed,
		"current":      current.Qty,
		"in_sync":      floatEquals(replayed, current.Qty),
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrBatchNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrMissingBatchReference),
		errors.Is(err, ErrBatchMismatch),
		errors.Is(err, ErrExpiryRequired),
		errors.Is(err, ErrStorageModeMismatch),
		errors.Is(err, ErrSameWarehouse):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Movement", err.Error())
	case errors.Is(err, ErrInsufficientBatchQuantity), errors.Is(err, ErrNegativeStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	default:
		h.logger.Error("inventory request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func actorID(r *http.Request) int64 {
	return queryInt64(r.Header.Get("X-Actor-Id"))
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

func floatEquals(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-6
}
