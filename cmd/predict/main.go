package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"weathersense/config"
	"weathersense/logger"
	"weathersense/ml"
	"weathersense/presenter"
)

func main() {
	defaults := ml.DefaultFeatures()
	configPath := flag.String("config", "", "config file (default config.yaml when present)")
	temperature := flag.Float64("temperature", defaults.Temperature, "temperature in °C")
	humidity := flag.Float64("humidity", defaults.Humidity, "humidity in %")
	pressure := flag.Float64("pressure", defaults.Pressure, "pressure in hPa")
	wind := flag.Float64("wind_speed", defaults.WindSpeed, "wind speed in km/h")
	sunshine := flag.Float64("sunshine", defaults.Sunshine, "sunshine in hours")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Must(cfg.Log)
	defer log.Sync()

	f := ml.WeatherFeatures{
		Temperature: *temperature,
		Humidity:    *humidity,
		Pressure:    *pressure,
		WindSpeed:   *wind,
		Sunshine:    *sunshine,
	}
	if err := ml.ValidateFeatures(f); err != nil {
		log.Fatal("invalid readings", zap.Error(err))
	}
	f = ml.SnapFeatures(f)

	predictor, err := ml.LoadModel(cfg.Artifacts.ModelPath, cfg.Artifacts.ScalerPath)
	if errors.Is(err, ml.ErrArtifactNotFound) {
		log.Fatal("model files not found, please train the model first", zap.Error(err))
	}
	if err != nil {
		log.Fatal("failed to load artifacts", zap.Error(err))
	}

	p, err := predictor.Predict(f)
	if err != nil {
		log.Fatal("prediction failed", zap.Error(err))
	}
	view := presenter.Build(p)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(view)
	} else {
		err = presenter.WriteText(os.Stdout, view)
	}
	if err != nil {
		log.Fatal("failed to write result", zap.Error(err))
	}
}
