package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"weathersense/config"
	"weathersense/db"
	"weathersense/logger"
	"weathersense/training"
)

func main() {
	configPath := flag.String("config", "", "config file (default config.yaml when present)")
	dataset := flag.String("dataset", "", "dataset CSV, overrides config")
	modelPath := flag.String("model_path", "", "model artifact output path, overrides config")
	scalerPath := flag.String("scaler_path", "", "scaler artifact output path, overrides config")
	trees := flag.Int("trees", 0, "number of trees, overrides config")
	workers := flag.Int("workers", -1, "concurrent tree workers, 0 means GOMAXPROCS")
	history := flag.Bool("history", false, "list recent training runs and exit")
	limit := flag.Int("limit", 10, "runs listed by -history")
	watch := flag.Bool("watch", false, "retrain whenever the dataset changes")
	debounce := flag.Duration("debounce", 2*time.Second, "quiet period before a -watch retrain")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *dataset, *modelPath, *scalerPath, *trees, *workers)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid flags: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *db.Store
	if cfg.Database.Path != "" {
		store, err = db.Open(cfg.Database.Path)
		if err != nil {
			log.Fatal("failed to open history database", zap.Error(err))
		}
		defer store.Close()
	}

	if *history {
		if store == nil {
			log.Fatal("-history needs database.path to be set")
		}
		if err := training.PrintHistory(ctx, os.Stdout, store, *limit); err != nil {
			log.Fatal("failed to list training runs", zap.Error(err))
		}
		return
	}

	var recorder training.RunRecorder
	if store != nil {
		recorder = store
	}
	trainer := training.NewTrainer(*cfg, log, os.Stdout, recorder)

	if _, err := trainer.Run(ctx); err != nil {
		if !*watch {
			log.Error("training failed", zap.Error(err))
			log.Sync()
			os.Exit(1)
		}
		log.Error("initial training failed, waiting for dataset changes", zap.Error(err))
	}

	if *watch {
		if err := trainer.Watch(ctx, *debounce); err != nil {
			log.Fatal("dataset watch failed", zap.Error(err))
		}
	}
}

func applyFlags(cfg *config.Config, dataset, modelPath, scalerPath string, trees, workers int) {
	if dataset != "" {
		cfg.Dataset.Path = dataset
	}
	if modelPath != "" {
		cfg.Artifacts.ModelPath = modelPath
	}
	if scalerPath != "" {
		cfg.Artifacts.ScalerPath = scalerPath
	}
	if trees > 0 {
		cfg.Training.Trees = trees
	}
	if workers >= 0 {
		cfg.Training.Workers = workers
	}
}
