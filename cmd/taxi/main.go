// Package main is the entry point of the taxi pickups train/evaluate harness.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/taxi-pickups/internal/config"
	"github.com/your-org/taxi-pickups/internal/csvwriter"
	"github.com/your-org/taxi-pickups/internal/dataset"
	"github.com/your-org/taxi-pickups/internal/datastore"
	"github.com/your-org/taxi-pickups/internal/evaluator"
	"github.com/your-org/taxi-pickups/internal/model"
)

// rowSource is everything the harness needs from a store, satisfied by both
// the Postgres repository and the CSV-backed in-memory one.
type rowSource interface {
	FetchExampleRange(ctx context.Context, startID, endID int64) ([]datastore.Example, error)
	AverageNumPickups(ctx context.Context, f datastore.AggregateFilter) (float64, bool, error)
	CountExamples(ctx context.Context) (int64, error)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: taxi [flags] <model>\n\nModels: %s\n\nFlags:\n",
		strings.Join(model.Names(), ", "))
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	applyMigrations := flag.Bool("migrate", false, "Apply database migrations before running")
	migrationsDir := flag.String("migrations", "db/migrations", "Path to the migrations directory")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	modelName := flag.Arg(0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is uninteresting at exit

	ctx := context.Background()

	var src rowSource
	switch cfg.Source.Kind {
	case "csv":
		repo, err := datastore.LoadCSVRepository(cfg.Source.CSVPath)
		if err != nil {
			logger.Fatal("Failed to load CSV source", zap.Error(err))
		}
		logger.Info("Loaded CSV source", zap.String("path", cfg.Source.CSVPath))
		src = repo
	default:
		if *applyMigrations {
			if err := datastore.RunMigrations(cfg.Database.URL(), *migrationsDir); err != nil {
				logger.Fatal("Failed to apply migrations", zap.Error(err))
			}
			logger.Info("Migrations applied", zap.String("dir", *migrationsDir))
		}
		pool, err := pgxpool.New(ctx, cfg.Database.URL())
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		src = datastore.NewRepository(pool, cfg.Dataset.TableName)
	}

	size := cfg.Dataset.Size
	if size == 0 {
		size, err = src.CountExamples(ctx)
		if err != nil {
			logger.Fatal("Failed to size the dataset", zap.Error(err))
		}
		logger.Info("Derived dataset size from source", zap.Int64("size", size))
	}

	ds, err := dataset.New(src, cfg.Dataset.TrainFraction, size)
	if err != nil {
		logger.Fatal("Failed to construct dataset", zap.Error(err))
	}

	m, err := model.New(modelName, model.Deps{
		Dataset:     ds,
		Store:       src,
		BatchSize:   cfg.Dataset.TrainBatchSize,
		TopFeatures: cfg.Training.TopFeatures,
		Logger:      logger,
	})
	if err != nil {
		if errors.Is(err, model.ErrUnknownModel) {
			fmt.Fprintf(os.Stderr, "%v\n\n", err)
			usage()
			os.Exit(1)
		}
		logger.Fatal("Failed to construct model", zap.Error(err))
	}

	logger.Info("Training model",
		zap.String("model", m.Describe()),
		zap.Int64("last_train_id", ds.LastTrainID()),
		zap.Int64("last_test_id", ds.LastTestID()),
	)
	if err := m.Train(ctx); err != nil {
		logger.Fatal("Training failed", zap.Error(err))
	}

	result, err := evaluator.New(m, ds, logger).Evaluate(ctx)
	if err != nil {
		logger.Fatal("Evaluation failed", zap.Error(err))
	}
	result.Log(logger)

	if cfg.Output.ResultsCSV != "" {
		writer, err := csvwriter.NewResultWriter(cfg.Output.ResultsCSV, logger)
		if err != nil {
			logger.Fatal("Failed to open results CSV", zap.Error(err))
		}
		if err := writer.WriteResult(result); err != nil {
			logger.Fatal("Failed to export results CSV", zap.Error(err))
		}
		if err := writer.Close(); err != nil {
			logger.Fatal("Failed to close results CSV", zap.Error(err))
		}
	}
}

func newLogger(logLevel string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	if lvl == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	return zapCfg.Build()
}
