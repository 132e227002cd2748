package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Lllllllleong/pdfreportflow/internal/config"
	"github.com/Lllllllleong/pdfreportflow/internal/gcp"
	"github.com/Lllllllleong/pdfreportflow/internal/query"
	"github.com/Lllllllleong/pdfreportflow/internal/report"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Failed to create firestore client", "error", err)
		os.Exit(1)
	}
	store := report.NewFirestoreStore(firestoreClient, cfg.ReportCollection)
	if err := store.EnsureReady(ctx); err != nil {
		slog.Error("Report store provisioning check failed", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	query.NewHandler(store).RegisterHTTP(r)

	slog.Info("Report API listening.", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
