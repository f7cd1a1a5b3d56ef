// Package entitlements собирает HTTP-приложение сервиса прав доступа.
package entitlements

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/entitlements/internal/config"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/access/read"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/beta/redeem"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/checkout/create"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/features/limits"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/health"
	"github.com/magabrotheeeer/entitlements/internal/http/handlers/trial/start"
	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, core *Core, httpCfg config.HTTPServer) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.IdentityMiddleware(core.Tokens, logger))

		r.Get("/access", read.New(logger, core.Resolver).ServeHTTP)

		// изменения прав доступа
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.Limit(httpCfg.RateLimit), httpCfg.RateBurst))
			r.Post("/beta/redeem", redeem.New(logger, core.Service).ServeHTTP)
			r.Post("/trial/start", start.New(logger, core.Service).ServeHTTP)
			r.Post("/checkout", create.New(logger, core.Service).ServeHTTP)
		})

		// защищённое содержимое
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AccessGate(logger, core.Resolver))
			r.Get("/features/limits", limits.New(logger).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, core.Store).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
