package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/parrotdeck/srs-api/internal/api"
	apiMiddleware "github.com/parrotdeck/srs-api/internal/api/middleware"
)

// routes builds the application router with all middleware and endpoints.
func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	cardHandler := api.NewCardHandler(app.cardService, app.logger)
	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.IdentityMiddleware(app.logger))

		// Review endpoints. The due route is registered before /cards/{id}
		// routes so chi does not treat "due" as a card ID.
		r.Get("/cards/due", reviewHandler.GetDueCards)
		r.Post("/cards/{id}/review", reviewHandler.SubmitReview)
		r.Post("/cards/{id}/postpone", reviewHandler.PostponeCard)
		r.Get("/cards/{id}/reviews", reviewHandler.GetReviewHistory)

		// Card lifecycle endpoints
		r.Post("/cards", cardHandler.CreateCard)
		r.Get("/cards/{id}", cardHandler.GetCard)
		r.Put("/cards/{id}", cardHandler.UpdateCard)
		r.Delete("/cards/{id}", cardHandler.DeleteCard)
		r.Post("/cards/{id}/suspend", cardHandler.SuspendCard)

		// Community endpoints
		r.Post("/cards/{id}/claim", cardHandler.ClaimCard)
		r.Get("/lessons/{lessonID}/community-cards", cardHandler.ListCommunityCards)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
