// Package router собирает служебный HTTP-сервер: health, метрики, документация и ручной запуск рассылки.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	_ "github.com/magabrotheeeer/luminary-journal/docs"
	"github.com/magabrotheeeer/luminary-journal/internal/http/handlers/broadcast"
	"github.com/magabrotheeeer/luminary-journal/internal/http/handlers/health"
	"github.com/magabrotheeeer/luminary-journal/internal/http/middlewarectx"
)

// NewRouter регистрирует маршруты.
// /admin/broadcast монтируется только при наличии broadcaster и tokens.
func NewRouter(logger *slog.Logger, healthHandler *health.Handler, broadcaster broadcast.Broadcaster, tokens middlewarectx.TokenParser) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)

	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	if broadcaster != nil && tokens != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.AdminMiddleware(tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.NewLimiter(rate.Every(time.Minute), 1)))
			r.Post("/broadcast", broadcast.New(logger, broadcaster).ServeHTTP)
		})
	}
	return r
}
