package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/agents"
	"github.com/lubobali/mergeAI/pkg/audit"
	"github.com/lubobali/mergeAI/pkg/config"
	"github.com/lubobali/mergeAI/pkg/database"
	"github.com/lubobali/mergeAI/pkg/handlers"
	"github.com/lubobali/mergeAI/pkg/llm"
	"github.com/lubobali/mergeAI/pkg/logging"
	"github.com/lubobali/mergeAI/pkg/middleware"
	"github.com/lubobali/mergeAI/pkg/repositories"
	"github.com/lubobali/mergeAI/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("sql_model", cfg.AI.SQLModel))

	ctx := context.Background()

	// Connect to the database
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run over database/sql; the pgx stdlib driver shares the
	// same connection settings as the pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// LLM clients, one per agent so models are independently selectable
	factory, err := llm.NewFactory(cfg.AI.Provider, cfg.AI.BaseURL, cfg.AI.APIKey, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM factory", zap.Error(err))
	}
	schemaClient, err := factory.ClientFor(cfg.AI.SchemaModel)
	if err != nil {
		logger.Fatal("Failed to create schema model client", zap.Error(err))
	}
	sqlClient, err := factory.ClientFor(cfg.AI.SQLModel)
	if err != nil {
		logger.Fatal("Failed to create SQL model client", zap.Error(err))
	}
	summaryClient, err := factory.ClientFor(cfg.AI.SummaryModel)
	if err != nil {
		logger.Fatal("Failed to create summary model client", zap.Error(err))
	}
	chartClient, err := factory.ClientFor(cfg.AI.ChartModel)
	if err != nil {
		logger.Fatal("Failed to create chart model client", zap.Error(err))
	}

	// Repositories
	fileRepo := repositories.NewFileRepository(db)
	rowRepo := repositories.NewRowRepository(db)

	// Agent pipeline
	auditor := audit.NewSecurityAuditor(logger)
	pipeline := agents.NewPipeline(
		agents.NewSchemaAgent(schemaClient, logger),
		agents.NewSQLAgent(sqlClient, logger),
		agents.NewSummaryAgent(summaryClient, logger),
		agents.NewChartAgent(chartClient, logger),
		rowRepo,
		auditor,
		logger,
	)

	// Services
	ingestService := services.NewIngestService(fileRepo, rowRepo, logger)
	fileService := services.NewFileService(fileRepo, rowRepo, logger)
	queryService := services.NewQueryService(fileRepo, pipeline, auditor, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewFilesHandler(ingestService, fileService, cfg.DemoUserID, logger).RegisterRoutes(mux)
	handlers.NewSuggestionsHandler(fileService, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(queryService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(middleware.Identity(cfg.DemoUserID)(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting mergeai-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
