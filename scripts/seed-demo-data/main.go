// seed-demo-data loads the demo CSV files every identity can query.
//
// Existing demo files are cleared and re-ingested, so the script is safe to
// re-run. Each *.csv in the given directory becomes one demo file owned by
// the demo identity.
//
// Usage: go run ./scripts/seed-demo-data -dir ./demo-data
//
// Database connection: config.yaml plus standard PG* environment variables
//
// Flags:
//
//	-dir    Directory containing the demo CSV files (default: demo-data)
//	-user   Identity that owns the demo files (default: demo_user)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/config"
	"github.com/lubobali/mergeAI/pkg/database"
	"github.com/lubobali/mergeAI/pkg/logging"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/repositories"
	"github.com/lubobali/mergeAI/pkg/services"
)

func main() {
	dir := flag.String("dir", "demo-data", "Directory containing the demo CSV files")
	demoUser := flag.String("user", "demo_user", "Identity that owns the demo files")
	flag.Parse()

	if err := run(*dir, *demoUser); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run(dir, demoUser string) error {
	ctx := context.Background()

	cfg, err := config.Load("seed")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: 4,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Clear old demo data. Rows cascade-delete with the file record. The
	// repository refuses to delete demo files, so this goes through SQL.
	tag, err := db.Exec(ctx, `DELETE FROM uploaded_files WHERE is_demo`)
	if err != nil {
		return fmt.Errorf("failed to clear demo files: %w", err)
	}
	logger.Info("Cleared old demo files", zap.Int64("count", tag.RowsAffected()))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read demo directory: %w", err)
	}

	fileRepo := repositories.NewFileRepository(db)
	rowRepo := repositories.NewRowRepository(db)

	seeded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}
		if err := seedFile(ctx, fileRepo, rowRepo, filepath.Join(dir, entry.Name()), demoUser, logger); err != nil {
			return fmt.Errorf("failed to seed %s: %w", entry.Name(), err)
		}
		seeded++
	}
	if seeded == 0 {
		return fmt.Errorf("no CSV files found in %s", dir)
	}

	logger.Info("Seed complete", zap.Int("files", seeded))
	return nil
}

func seedFile(ctx context.Context, fileRepo repositories.FileRepository, rowRepo repositories.RowRepository, path, demoUser string, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	parsed, err := services.ParseCSV(f)
	if err != nil {
		return err
	}

	file := &models.UploadedFile{
		UserID:       demoUser,
		FileName:     filepath.Base(path),
		Columns:      parsed.Columns,
		ColumnTypes:  parsed.ColumnTypes,
		SampleValues: parsed.SampleValues,
		RowCount:     len(parsed.Rows),
		IsDemo:       true,
	}
	if err := fileRepo.Create(ctx, file); err != nil {
		return err
	}
	if err := rowRepo.BatchInsert(ctx, file.ID, demoUser, parsed.Rows); err != nil {
		return err
	}

	logger.Info("Seeded demo file",
		zap.String("file", file.FileName),
		zap.Int("columns", len(file.Columns)),
		zap.Int("rows", file.RowCount))
	return nil
}
