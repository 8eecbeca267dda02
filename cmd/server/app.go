package main

import (
	"database/sql"
	"log/slog"

	"github.com/parrotdeck/srs-api/internal/config"
	"github.com/parrotdeck/srs-api/internal/domain/srs"
	"github.com/parrotdeck/srs-api/internal/platform/postgres"
	"github.com/parrotdeck/srs-api/internal/service"
	"github.com/parrotdeck/srs-api/internal/service/card_review"
	"github.com/parrotdeck/srs-api/internal/store"
)

// application holds the shared application dependencies so wiring happens in
// one place and cleanup runs once on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cardStore      store.CardStore
	reviewLogStore store.ReviewLogStore

	srsService    srs.Service
	cardService   service.CardService
	reviewService card_review.CardReviewService
}

// newApplication connects to the database and wires stores and services.
func newApplication(cfg *config.Config) (*application, error) {
	log := slog.Default()

	db, err := openDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	cardStore := postgres.NewPostgresCardStore(db, log)
	reviewLogStore := postgres.NewPostgresReviewLogStore(db, log)
	txRunner := store.NewRunner(db)

	srsService := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MaxEaseFactor:             cfg.SRS.MaxEaseFactor,
		LapseEasePenalty:          cfg.SRS.LapseEasePenalty,
		LapseIntervalDays:         cfg.SRS.LapseIntervalDays,
		FirstSuccessIntervalDays:  cfg.SRS.FirstSuccessIntervalDays,
		SecondSuccessIntervalDays: cfg.SRS.SecondSuccessIntervalDays,
	}))

	cardService := service.NewCardService(cardStore, txRunner, log)
	reviewService := card_review.NewCardReviewService(
		card_review.NewCardRepositoryAdapter(cardStore),
		card_review.NewReviewLogRepositoryAdapter(reviewLogStore),
		txRunner,
		srsService,
		log,
	)

	return &application{
		config:         cfg,
		logger:         log,
		db:             db,
		cardStore:      cardStore,
		reviewLogStore: reviewLogStore,
		srsService:     srsService,
		cardService:    cardService,
		reviewService:  reviewService,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
