package router

import (
	"net/http"

	"meal-kart/internal/handler"
	"meal-kart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Products *handler.ProductHandler
	Meals    *handler.MealHandler
	Users    *handler.UserHandler
	Plans    *handler.PlanHandler
	Orders   *handler.OrderHandler
	Requests *handler.RequestHandler
	Payments *handler.PaymentHandler
	Carts    *handler.CartHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: CorrelationID -> Recovery -> Logging -> CORS -> APIKeyAuth
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Authenticated by the gateway signature rather than the API key.
	r.Post(middleware.WebhookPath, h.Payments.Webhook)

	r.Route("/api", func(r chi.Router) {
		r.Post("/payments/checkout", h.Payments.Checkout)
		r.Get("/transactions", h.Payments.ListTransactions)
		r.Get("/transactions/{id}", h.Payments.GetTransaction)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Users.Create)
			r.Get("/", h.Users.List)
			r.Get("/{id}", h.Users.Get)
			r.Patch("/{id}", h.Users.Update)
		})

		r.Route("/meals", func(r chi.Router) {
			r.Post("/", h.Meals.Create)
			r.Get("/", h.Meals.List)
			r.Get("/{id}", h.Meals.Get)
			r.Patch("/{id}", h.Meals.Update)
			r.Delete("/{id}", h.Meals.Delete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", h.Products.Create)
			r.Get("/", h.Products.GetAll)
			r.Get("/{id}", h.Products.GetByID)
			r.Patch("/{id}", h.Products.Update)
			r.Delete("/{id}", h.Products.Delete)
		})

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", h.Plans.Create)
			r.Get("/", h.Plans.List)
			r.Get("/{id}", h.Plans.Get)
			r.Patch("/{id}", h.Plans.Update)
			r.Delete("/{id}", h.Plans.Delete)
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Post("/", h.Plans.UpsertSchedule)
			r.Get("/", h.Plans.ListSchedule)
			r.Post("/populate-week", h.Plans.PopulateWeek)
			r.Delete("/{day}", h.Plans.DeleteSchedule)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Orders.Create)
			r.Get("/", h.Orders.List)
			r.Post("/from-plan/{planId}", h.Orders.FromPlan)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Orders.GetByID)
				r.Patch("/", h.Orders.Update)
				r.Delete("/", h.Orders.Delete)
				r.Patch("/status", h.Orders.UpdateStatus)
				r.Patch("/assign-driver", h.Orders.AssignDriver)
				r.Post("/cancel", h.Orders.Cancel)
			})
		})
		r.Post("/orders-from-plans", h.Orders.FromPlansByType)

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.Requests.Create)
			r.Get("/", h.Requests.List)
			r.Get("/{id}", h.Requests.Get)
			r.Post("/{id}/accept", h.Requests.Accept)
			r.Post("/{id}/deny", h.Requests.Deny)
			r.Post("/{id}/refund", h.Requests.Refund)
		})

		r.Post("/carts", h.Carts.Create)
		r.Get("/carts/{userId}", h.Carts.GetByUser)
		r.Route("/cart-items", func(r chi.Router) {
			r.Get("/", h.Carts.ListItems)
			r.Post("/", h.Carts.AddItem)
			r.Get("/{id}", h.Carts.GetItem)
			r.Patch("/{id}", h.Carts.UpdateItem)
			r.Delete("/{id}", h.Carts.DeleteItem)
		})
	})

	return r
}
