package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"opsdesk/internal/cache"
	"opsdesk/internal/config"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/events"
	"opsdesk/internal/handler"
	"opsdesk/internal/middleware"
	"opsdesk/internal/repository/postgres"
	"opsdesk/internal/service"
)

// mounts maps document kinds to their API base paths.
var mounts = map[models.Kind]string{
	models.KindQuotation: "/api/quotations",
	models.KindInvoice:   "/api/invoices",
	models.KindExpense:   "/api/expenses",
	models.KindPlan:      "/api/plans",
	models.KindTicketA:   "/api/tickets-a",
	models.KindTicketB:   "/api/tickets-b",
}

func main() {
	// .env is optional; production sets real environment variables.
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	kinds, err := config.NewKindRegistry()
	if err != nil {
		log.Fatalf("Failed to load kind registry: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	itemRepo := postgres.NewItemRepository(repoConfig)
	remarkRepo := postgres.NewRemarkRepository(repoConfig)
	seqRepo := postgres.NewSequenceRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	aggregates := cache.NewAggregateCache()

	// The invalidation broadcast is optional; without a broker each instance
	// only drops its own cache.
	var publisher events.Publisher
	if cfg.NATSURL != "" {
		natsConn, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsConn.Close()
		publisher = natsConn

		if err := natsConn.Subscribe(ctx, cache.SubjectInvalidate, cache.InvalidationHandler(aggregates, logger)); err != nil {
			log.Fatalf("Failed to subscribe to cache invalidations: %v", err)
		}
		logger.Info("cache invalidation broadcast enabled", "url", cfg.NATSURL)
	}

	invalidator := cache.NewInvalidationCoordinator(aggregates, publisher, logger)

	issuer := service.NewSequenceIssuer(seqRepo, docRepo, kinds, logger)
	names := service.NewNameResolver(docRepo)
	reconciler := service.NewReconciler(itemRepo, remarkRepo)
	docService := service.NewDocumentService(
		docRepo, itemRepo, remarkRepo, txManager,
		issuer, names, reconciler,
		aggregates, invalidator, kinds, logger,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	for kind, basePath := range mounts {
		handler.NewDocumentHandler(kind, docService, logger).Register(mux, basePath)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	var root http.Handler = mux
	root = middleware.RequestLog(logger)(root)
	root = middleware.Recovery(logger)(root)
	root = corsHandler.Handler(root)

	logger.Info("listening", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, root); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
