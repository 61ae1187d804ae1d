package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"weathersense/config"
	"weathersense/db"
	qhttp "weathersense/http"
	"weathersense/logger"
	"weathersense/ml"
	"weathersense/monitoring"
)

func main() {
	configPath := flag.String("config", "", "config file (default config.yaml when present)")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// 2. Load the artifact pair once; without it there is nothing to serve
	predictor, err := ml.LoadModel(cfg.Artifacts.ModelPath, cfg.Artifacts.ScalerPath)
	if errors.Is(err, ml.ErrArtifactNotFound) {
		return fmt.Errorf("model files not found, please train the model first: %w", err)
	}
	if err != nil {
		return err
	}
	info := predictor.Info()
	log.Info("artifacts loaded",
		zap.String("model", info.ModelPath),
		zap.String("scaler", info.ScalerPath),
		zap.String("model_fingerprint", info.ModelFingerprint),
		zap.Strings("features", info.FeatureNames),
	)

	// 3. Optional prediction history
	var history qhttp.PredictionRecorder
	if cfg.Database.Path != "" && cfg.Database.RecordPredictions {
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer store.Close()
		history = store
		log.Info("recording predictions", zap.String("database", cfg.Database.Path))
	}

	svc, err := qhttp.NewPredictService(predictor, cfg.HTTP.CacheSize, history, monitoring.NewPredictionMetrics(), log)
	if err != nil {
		return err
	}

	// 4. Serve until SIGINT/SIGTERM
	server := qhttp.NewServer(cfg.HTTP, qhttp.NewHandler(svc, cfg.HTTP.AllowedOrigins, log), log)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
