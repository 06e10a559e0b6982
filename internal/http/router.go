package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/ordertransfer/internal/http/auth"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/checkout"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/export"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/transfer"
)

func New(
	allowedOrigins []string,
	authenticator *auth.Authenticator,
	checkoutV1 *checkout.Handler,
	transfersV1 *transfer.Handler,
	exportsV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if len(allowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", checkout.SessionHeader},
			ExposedHeaders:   []string{checkout.SessionHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticator.Middleware)

		checkoutV1.Routes(r)

		r.Route("/transfers", transfersV1.Routes)
		r.Route("/exports", exportsV1.Routes)
	})

	return router
}
