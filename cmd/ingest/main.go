package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/ingest"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/ingest/normalize"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/polygons"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/stores"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/config"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "ingest"})

	_ = godotenv.Load()

	input := flag.String("input", "", "path to the KML or KMZ export")
	reportPath := flag.String("report", "", "write the JSON report here instead of stdout")
	commit := flag.Bool("commit", false, "append polygon versions for confident matches (default is a dry run)")
	minConfidence := flag.Float64("min-confidence", 0.8, "confidence floor for committing a match")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "missing -input path")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "ingest",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	storesRepo := stores.NewRepository(dbClient.DB())
	polygonsRepo := polygons.NewRepository(dbClient.DB())

	polygonService, err := polygons.NewService(polygonsRepo, storesRepo, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create polygon service", err)
		os.Exit(1)
	}

	matcher := normalize.NewMatcher(cfg.Geo.MatchThreshold)
	importer, err := ingest.NewService(storesRepo, polygonService, matcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create importer", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"input":  *input,
		"commit": *commit,
	})
	logg.Info(ctx, "starting polygon import")

	report, err := importer.RunFile(ctx, *input, ingest.Options{
		Commit:        *commit,
		MinConfidence: *minConfidence,
	})
	if err != nil {
		logg.Error(ctx, "import failed", err)
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logg.Error(ctx, "encoding report failed", err)
		os.Exit(1)
	}

	if *reportPath != "" {
		if err := os.WriteFile(*reportPath, append(encoded, '\n'), 0o644); err != nil {
			logg.Error(ctx, "writing report failed", err)
			os.Exit(1)
		}
	} else {
		fmt.Println(string(encoded))
	}

	summary := logg.WithFields(ctx, map[string]any{
		"stores":    report.Stores,
		"total":     report.Total,
		"matched":   report.Matched,
		"committed": report.Committed,
		"skipped":   report.Skipped,
	})
	logg.Info(summary, "polygon import finished")
}
