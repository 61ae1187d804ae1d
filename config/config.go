// Package config defines the configuration shared by the trainer and the
// predictor service.
//
// Values are resolved in layers, later layers winning:
//
//	Defaults -> YAML file -> .env file -> WEATHERSENSE_* environment
//
// The result is validated once; an invalid configuration is returned as a
// *ConfigError and the commands exit.
package config

import (
	"time"

	"weathersense/logger"
)

// DefaultPath is the config file looked up when no path is given. Its absence
// is not an error.
const DefaultPath = "config.yaml"

// EnvPrefix prefixes every environment override, e.g. WEATHERSENSE_HTTP_PORT.
const EnvPrefix = "WEATHERSENSE"

// Leaf fields take their variable names from the field name, so every
// override carries the full prefix, e.g. WEATHERSENSE_DATASET_PATH.
type Config struct {
	Dataset   DatasetConfig  `yaml:"dataset" envconfig:"DATASET"`
	Artifacts ArtifactConfig `yaml:"artifacts" envconfig:"ARTIFACTS"`
	Training  TrainingConfig `yaml:"training" envconfig:"TRAINING"`
	HTTP      HTTPConfig     `yaml:"http" envconfig:"HTTP"`
	Database  DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Log       logger.Config  `yaml:"log" envconfig:"LOG"`
}

// DatasetConfig locates the training CSV.
type DatasetConfig struct {
	Path     string `yaml:"path" split_words:"true" validate:"required"`
	Encoding string `yaml:"encoding" split_words:"true" validate:"oneof=utf-8 latin1 windows-1252"`
}

// ArtifactConfig names the two persisted files. They are always written and
// read as a pair.
type ArtifactConfig struct {
	ModelPath  string `yaml:"model_path" split_words:"true" validate:"required"`
	ScalerPath string `yaml:"scaler_path" split_words:"true" validate:"required,nefield=ModelPath"`
}

// TrainingConfig holds the split and forest hyper-parameters.
type TrainingConfig struct {
	Seed            int64   `yaml:"seed" split_words:"true"`
	TestRatio       float64 `yaml:"test_ratio" split_words:"true" validate:"gt=0,lt=1"`
	Trees           int     `yaml:"trees" split_words:"true" validate:"gte=1"`
	MaxDepth        int     `yaml:"max_depth" split_words:"true" validate:"gte=0"`
	MinSamplesSplit int     `yaml:"min_samples_split" split_words:"true" validate:"gte=2"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf" split_words:"true" validate:"gte=1"`
	Workers         int     `yaml:"workers" split_words:"true" validate:"gte=0"`
}

// HTTPConfig configures the predictor service.
type HTTPConfig struct {
	Port           int           `yaml:"port" split_words:"true" validate:"gte=1,lte=65535"`
	Timeout        time.Duration `yaml:"timeout" split_words:"true" validate:"gt=0"`
	AllowedOrigins []string      `yaml:"allowed_origins" split_words:"true"`
	CacheSize      int           `yaml:"cache_size" split_words:"true" validate:"gte=0"`
}

// DatabaseConfig points at the SQLite history database. An empty path
// disables history.
type DatabaseConfig struct {
	Path              string `yaml:"path" split_words:"true"`
	RecordPredictions bool   `yaml:"record_predictions" split_words:"true"`
}

// Default returns the values used when neither file nor environment set them.
func Default() Config {
	return Config{
		Dataset: DatasetConfig{
			Path:     "weather_prediction_dataset.csv",
			Encoding: "utf-8",
		},
		Artifacts: ArtifactConfig{
			ModelPath:  "rain_prediction_model.bin",
			ScalerPath: "scaler.bin",
		},
		Training: TrainingConfig{
			Seed:            42,
			TestRatio:       0.2,
			Trees:           100,
			MaxDepth:        0,
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
		},
		HTTP: HTTPConfig{
			Port:           8080,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
			CacheSize:      1024,
		},
		Log: logger.Config{
			Level: "info",
		},
	}
}

// ConfigErrorType categorizes configuration failures.
type ConfigErrorType string

const (
	ErrFileRead   ConfigErrorType = "FILE_READ_FAILED"
	ErrParsing    ConfigErrorType = "PARSING_FAILED"
	ErrEnv        ConfigErrorType = "ENV_FAILED"
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)
