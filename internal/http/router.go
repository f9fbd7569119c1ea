package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"thaniel-pos-services/internal/auth"
	"thaniel-pos-services/internal/config"
	"thaniel-pos-services/internal/http/handlers"
	"thaniel-pos-services/internal/inventory"
	"thaniel-pos-services/internal/middleware"
	"thaniel-pos-services/internal/payment"
	"thaniel-pos-services/internal/queue"
	"thaniel-pos-services/internal/storage"
	"thaniel-pos-services/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Deps struct {
	DB        *pgxpool.Pool
	Logger    *zap.Logger
	Config    config.Config
	Queue     *queue.Client
	Inventory *inventory.Service
	Payments  *payment.Client
	Objects   *storage.ObjectStore
	WS        *ws.Server
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(deps.Logger))

	cfg := deps.Config
	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{
		DB:        deps.DB,
		Logger:    deps.Logger,
		Config:    cfg,
		Queue:     deps.Queue,
		Inventory: deps.Inventory,
		Payments:  deps.Payments,
		Objects:   deps.Objects,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/auth/login", h.Login)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.StaffAuth(cfg.JWTSecret))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.OrdersList)
			r.Post("/", h.OrdersCreate)
			r.Get("/{id}", h.OrderDetail)
			r.Patch("/{id}/status", h.OrderUpdateStatus)
			r.Get("/{id}/receipt", h.OrderReceiptPDF)
			r.Post("/by-code/{code}/items", h.OrderAddItems)
			r.Patch("/items/{itemId}/status", h.OrderItemUpdateStatus)

			// Kitchen staff never touch money.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleCashier))
				r.Post("/{id}/payment", h.OrderGeneratePayment)
				r.Post("/{id}/payment/confirm", h.OrderConfirmPayment)
			})
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", h.MenuList)
			r.Get("/{id}/ingredients", h.MenuIngredientsForMenu)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin))
				r.Post("/", h.MenuCreate)
				r.Put("/{id}", h.MenuUpdate)
				r.Delete("/{id}", h.MenuDelete)
				r.Patch("/{id}/availability", h.MenuToggleAvailable)
				r.Post("/{id}/image", h.MenuUploadImage)
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.InventoryList)
			r.Get("/transactions", h.InventoryTransactionsList)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin))
				r.Post("/", h.InventoryCreate)
				r.Put("/{id}", h.InventoryUpdate)
				r.Delete("/{id}", h.InventoryDelete)
				r.Post("/adjust", h.InventoryAdjustStock)
			})
		})

		r.Route("/menu-ingredients", func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Get("/", h.MenuIngredientsList)
			r.Post("/", h.MenuIngredientsCreate)
			r.Put("/{id}", h.MenuIngredientsUpdate)
			r.Delete("/{id}", h.MenuIngredientsDelete)
		})

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", h.TablesList)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin))
				r.Post("/", h.TablesCreate)
				r.Put("/{id}", h.TablesUpdate)
				r.Delete("/{id}", h.TablesDelete)
			})
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Get("/", h.SuppliersList)
			r.Post("/", h.SuppliersCreate)
			r.Put("/{id}", h.SuppliersUpdate)
			r.Delete("/{id}", h.SuppliersDelete)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", h.DashboardSummary)
			r.Get("/stock-report", h.DashboardStockReport)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.NotificationsList)
			r.Patch("/{id}/read", h.NotificationsMarkRead)
		})
	})

	if deps.WS != nil {
		r.Get("/ws/stock", deps.WS.StockStream)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
