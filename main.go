package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vikiai/newsletter/api"
	"github.com/vikiai/newsletter/client"
	"github.com/vikiai/newsletter/config"
	"github.com/vikiai/newsletter/datastore"
	"github.com/vikiai/newsletter/datastore/memory"
	"github.com/vikiai/newsletter/datastore/mongo"
	"github.com/vikiai/newsletter/datastore/postgres"
	"github.com/vikiai/newsletter/logging"
	rh "github.com/vikiai/newsletter/route-handlers"
	"github.com/vikiai/newsletter/subscription"
	"github.com/vikiai/newsletter/widget"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	store, err := setupStore(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Store setup failed")
	}
	store = datastore.Instrument(store)

	subscriptionService := subscription.NewService(store)

	renderer, err := widget.NewRenderer()
	if err != nil {
		logging.Fatal().Err(err).Msg("Widget templates failed to load")
	}

	subscriptionHandler := rh.NewSubscriptionHandler(subscriptionService)
	pageHandler := rh.NewPageHandler(pageAPI(cfg, subscriptionService), renderer)

	router := api.SetupRoutes(cfg, api.Handlers{
		Subscription: subscriptionHandler,
		Pages:        pageHandler,
		Store:        subscriptionService,
	})

	startServer(cfg, router)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := store.Close(closeCtx); err != nil {
		logging.Error().Err(err).Msg("Failed to close store")
	}
}

// pageAPI picks where form submissions go: the service in this process, or a
// remote JSON API when one is configured.
func pageAPI(cfg *config.Config, service *subscription.Service) rh.API {
	if base := cfg.APIBaseURL(); base != "" {
		logging.Info().Str("api_base_url", base).Msg("Pages submit to remote API")
		return client.New(base)
	}
	return rh.NewServiceAPI(service)
}

func setupStore(cfg config.StoreConfig) (datastore.SubscriberStore, error) {
	ctx := context.Background()

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresURL, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		logging.Info().Msg("Database connection successful")
		return postgres.New(db), nil
	case config.DriverMongo:
		store, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		logging.Info().Str("database", cfg.MongoDatabase).Msg("MongoDB connection successful")
		return store, nil
	case config.DriverMemory:
		logging.Warn().Msg("Using in-memory store, subscribers are lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func startServer(cfg *config.Config, router http.Handler) {
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGTERM)

	go func() {
		logging.Info().Str("addr", server.Addr).Str("environment", cfg.Server.Environment).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-shutdownSignal // Block until signal received
	logging.Info().Msg("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logging.Info().Msg("Server gracefully stopped")
}
