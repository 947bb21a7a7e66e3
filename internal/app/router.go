package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lightwin075/RossiChatllm2/internal/inventory"
	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/products"
	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/suppliers"
	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/warehouses"
	"github.com/Lightwin075/RossiChatllm2/internal/observability"
	"github.com/Lightwin075/RossiChatllm2/internal/orders"
	"github.com/Lightwin075/RossiChatllm2/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	InventoryHandler  *inventory.Handler
	OrdersHandler     *orders.Handler
	ProductsHandler   *products.Handler
	WarehousesHandler *warehouses.Handler
	SuppliersHandler  *suppliers.Handler
	JobHandler        *jobs.Handler
	Pool              *pgxpool.Pool
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Error("health check db ping", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.InventoryHandler != nil {
			params.InventoryHandler.MountRoutes(api)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(api)
		}
		if params.ProductsHandler != nil {
			params.ProductsHandler.MountRoutes(api)
		}
		if params.WarehousesHandler != nil {
			params.WarehousesHandler.MountRoutes(api)
		}
		if params.SuppliersHandler != nil {
			params.SuppliersHandler.MountRoutes(api)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(jr chi.Router) {
			params.JobHandler.MountRoutes(jr)
		})
	}

	return r
}
