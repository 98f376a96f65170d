package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Viewers отмечает активность зрителей дашборда
type Viewers interface {
	Touch()
}

// Handlers - набор обработчиков для Router
type Handlers struct {
	Dashboard *DashboardHandler
	Auth      *AuthHandler
	Stats     *StatsHandler
	Lists     *ListsHandler
}

// serveOpenAPISpec отдаёт OpenAPI спецификацию
func serveOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	// Спецификация находится в корне проекта
	http.ServeFile(w, r, "openapi.yml")
}

// Router создаёт и настраивает HTTP роутер
func Router(h Handlers, viewers Viewers, requestTimeout time.Duration, logger *zap.Logger) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// OpenAPI спецификация
	r.Get("/openapi.yml", serveOpenAPISpec)

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	))

	// Dashboard endpoints
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(viewerMiddleware(viewers))
		r.Get("/advanced", h.Dashboard.GetAdvanced)
		r.Get("/caisse", h.Dashboard.GetCaisse)
		r.Get("/recettes", h.Dashboard.GetRecettes)
		r.Get("/synchronized", h.Dashboard.GetSynchronized)
		r.Post("/{name}/refetch", h.Dashboard.Refetch)
	})

	// Auth endpoints
	r.Put("/auth/token", h.Auth.PutToken)
	r.Delete("/auth/token", h.Auth.DeleteToken)

	// Stats endpoints
	r.Post("/stats/clear-cache", h.Stats.ClearCache)
	r.Get("/stats/export", h.Stats.Export)
	r.Get("/stats/preparation-time", h.Stats.GetPreparationTime)
	r.Get("/stats/comparison", h.Stats.GetComparison)
	r.Get("/stats/stock", h.Stats.GetStock)

	// Lists endpoints
	r.Get("/stock", h.Lists.GetStock)
	r.Get("/stock/alerts", h.Lists.GetStockAlerts)
	r.Get("/notifications", h.Lists.GetNotifications)
	r.Patch("/notifications/mark-all-read", h.Lists.MarkAllRead)
	r.Patch("/notifications/{id}/read", h.Lists.MarkRead)
	r.Delete("/notifications/{id}", h.Lists.DeleteNotification)

	return r
}

// viewerMiddleware отмечает, что дашборд сейчас кто-то смотрит
func viewerMiddleware(viewers Viewers) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if viewers != nil {
				viewers.Touch()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggerMiddleware добавляет структурированное логирование HTTP запросов
func loggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
