package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cubo-casa/orcamentos/internal/assets"
	"github.com/cubo-casa/orcamentos/internal/blob"
	"github.com/cubo-casa/orcamentos/internal/budget"
	"github.com/cubo-casa/orcamentos/internal/config"
	"github.com/cubo-casa/orcamentos/internal/covers"
	"github.com/cubo-casa/orcamentos/internal/db"
	"github.com/cubo-casa/orcamentos/internal/logger"
	"github.com/cubo-casa/orcamentos/internal/metrics"
	"github.com/cubo-casa/orcamentos/internal/migrations"
	"github.com/cubo-casa/orcamentos/internal/proposal"
	"github.com/cubo-casa/orcamentos/internal/seed"
)

type server struct {
	db        *sql.DB
	logger    *slog.Logger
	metrics   *metrics.Metrics
	budgets   *budget.Service
	assets    *assets.Service
	covers    *covers.Service
	proposals *proposal.Builder
	files     http.Handler
}

func newServer(database *sql.DB, blobs blob.Store, maxUpload int64, log *slog.Logger, m *metrics.Metrics) *server {
	s := &server{
		db:        database,
		logger:    log,
		metrics:   m,
		budgets:   budget.NewService(database, log, m),
		assets:    assets.NewService(database, blobs, maxUpload, log, m),
		covers:    covers.NewService(database, log),
		proposals: proposal.NewBuilder(database),
	}
	if local, ok := blobs.(*blob.LocalStore); ok {
		s.files = http.StripPrefix("/files/", http.FileServer(http.Dir(local.Dir())))
	}
	return s
}

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DB.Path)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		log.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	stats, err := seed.Run(ctx, database)
	if err != nil {
		log.Error("failed to seed database", "error", err)
		os.Exit(1)
	}
	log.Info("database ready", "path", cfg.DB.Path, "seed_inserts", stats.Inserts)

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		log.Error("failed to open blob store", "error", err)
		os.Exit(1)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	srv := newServer(database, blobs, cfg.Assets.MaxBytes, log, m)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.HTTP.Addr, "env", cfg.App.Env, "storage", cfg.Storage.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func openBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.Storage.Driver == "s3" {
		return blob.NewS3Store(ctx, blob.S3Options{
			Bucket:        cfg.Storage.S3.Bucket,
			Region:        cfg.Storage.S3.Region,
			Endpoint:      cfg.Storage.S3.Endpoint,
			AccessKey:     cfg.Storage.S3.AccessKey,
			SecretKey:     cfg.Storage.S3.SecretKey,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
	}
	return blob.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	useMiddleware(r, s.logger, s.metrics)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	if s.files != nil {
		r.Handle("/files/*", s.files)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleSaveSettings)
		r.Get("/page-layout", s.handleGetPageLayout)
		r.Put("/page-layout", s.handleSavePageLayout)
		r.Get("/template-settings", s.handleGetTemplateSettings)
		r.Put("/template-settings/main-cover", s.handleSetMainCover)
		r.Put("/template-settings/default-asset", s.handleSetDefaultAsset)

		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Put("/templates/{id}", s.handleUpdateTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		r.Get("/budgets", s.handleListBudgets)
		r.Post("/budgets", s.handleCreateBudget)
		r.Route("/budgets/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetBudget)
			r.Delete("/", s.handleDeleteBudget)
			r.Put("/client", s.handleUpdateClient)
			r.Put("/status", s.handleSetStatus)
			r.Put("/rules", s.handleUpdateRules)
			r.Get("/summary", s.handleSummary)
			r.Post("/recalculate", s.handleRecalculate)
			r.Post("/environments", s.handleAddEnvironment)
			r.Post("/covers", s.handleApplyCovers)
			r.Get("/proposal", s.handleProposalHTML)
			r.Get("/proposal.pdf", s.handleProposalPDF)
			r.Get("/proposal.xlsx", s.handleProposalXLSX)
		})

		r.Patch("/environments/{id}", s.handleUpdateEnvironment)
		r.Delete("/environments/{id}", s.handleDeleteEnvironment)
		r.Post("/environments/{id}/items", s.handleAddItem)
		r.Patch("/items/{id}", s.handleUpdateItem)
		r.Delete("/items/{id}", s.handleDeleteItem)

		r.Get("/assets", s.handleListAssets)
		r.Post("/assets", s.handleUploadAsset)
		r.Get("/assets/{id}", s.handleGetAsset)
		r.Patch("/assets/{id}", s.handleUpdateAsset)
		r.Delete("/assets/{id}", s.handleDeleteAsset)
		r.Get("/assets/{id}/history", s.handleAssetHistory)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)
		r.Delete("/categories/{id}", s.handleDeleteCategory)
		r.Get("/mappings", s.handleListMappings)
		r.Post("/mappings", s.handleCreateMapping)
		r.Delete("/mappings/{id}", s.handleDeleteMapping)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
