// Command rebuild runs a one-shot opportunity rebuild pass and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/constructiq/safety-lead-pipeline/internal/database"
	"github.com/constructiq/safety-lead-pipeline/internal/logger"
	"github.com/constructiq/safety-lead-pipeline/internal/services"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

func main() {
	sinceFlag := flag.String("since", "", "only replay events on or after this date (YYYY-MM-DD)")
	untilFlag := flag.String("until", "", "only replay events on or before this date (YYYY-MM-DD)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.New()

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	scoringCfg, err := config.LoadScoringConfig(cfg.ScoringConfig)
	if err != nil {
		log.Fatal("Invalid scoring configuration:", err)
	}

	since, err := parseDateFlag(*sinceFlag)
	if err != nil {
		log.Fatal("Invalid -since date:", err)
	}
	until, err := parseDateFlag(*untilFlag)
	if err != nil {
		log.Fatal("Invalid -until date:", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	svcs, err := services.NewServices(db.DB, scoringCfg, zlog)
	if err != nil {
		log.Fatal("Failed to initialize services:", err)
	}

	// SIGINT/SIGTERM cancel between events; partial state is valid and the
	// next run completes it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := svcs.Pipeline.Rebuild(ctx, since, until)
	if err != nil {
		if summary != nil {
			zlog.Warn("rebuild interrupted", zap.String("summary", summary.Summary()))
		}
		log.Fatal("Rebuild failed:", err)
	}

	fmt.Println(summary.Summary())
	for _, warning := range summary.Warnings {
		fmt.Println("warning:", warning)
	}
	for _, errMsg := range summary.Errors {
		fmt.Println("error:", errMsg)
	}
	if len(summary.Errors) > 0 {
		os.Exit(1)
	}
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
