package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	fraudHandler "github.com/kodipay/kodipay/internal/http/fraud"
	leaseHandler "github.com/kodipay/kodipay/internal/http/lease"
	paymentHandler "github.com/kodipay/kodipay/internal/http/payment"
	statementHandler "github.com/kodipay/kodipay/internal/http/statement"
	unitHandler "github.com/kodipay/kodipay/internal/http/unit"
)

func New(
	jwtSecret string,
	paymentsV1 *paymentHandler.Handler,
	leasesV1 *leaseHandler.Handler,
	unitsV1 *unitHandler.Handler,
	fraudV1 *fraudHandler.Handler,
	statementsV1 *statementHandler.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	auth := Auth(jwtSecret)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			// The gateway posts callbacks without credentials.
			r.Post("/callback", paymentsV1.Callback)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Use(middleware.AllowContentType("application/json"))
				paymentsV1.Routes(r)
			})
		})

		r.Route("/leases", func(r chi.Router) {
			r.Use(auth)
			r.Use(middleware.AllowContentType("application/json"))
			leasesV1.Routes(r)
		})

		r.Route("/units", func(r chi.Router) {
			r.Use(auth)
			r.Use(middleware.AllowContentType("application/json"))
			unitsV1.Routes(r)
		})

		r.Route("/fraud", func(r chi.Router) {
			r.Use(auth)
			r.Use(middleware.AllowContentType("application/json"))
			fraudV1.Routes(r)
		})

		// No content-type restriction: statement imports are raw CSV bodies.
		r.Route("/statements", func(r chi.Router) {
			r.Use(auth)
			statementsV1.Routes(r)
		})
	})

	return router
}
