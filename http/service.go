package http

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"weathersense/db"
	"weathersense/ml"
	"weathersense/monitoring"
	"weathersense/presenter"
)

// Predictor is the loaded artifact pair. *ml.Predictor satisfies it.
type Predictor interface {
	Predict(f ml.WeatherFeatures) (ml.Prediction, error)
	Info() ml.ArtifactInfo
}

type PredictionRecorder interface {
	RecordPrediction(ctx context.Context, p db.PredictionRecord) error
}

// InvalidInputError lists readings outside their input bounds, keyed by
// input name.
type InvalidInputError struct {
	Fields map[string]string
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, spec := range ml.InputSpecs() {
		if msg, ok := e.Fields[spec.Name]; ok {
			parts = append(parts, spec.Name+" "+msg)
		}
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// PredictService validates and snaps readings, then predicts. Results are
// memoized by snapped readings; the artifacts never change while the process
// runs, so entries never go stale.
type PredictService struct {
	predictor Predictor
	cache     *lru.Cache[ml.WeatherFeatures, ml.Prediction]
	history   PredictionRecorder
	metrics   *monitoring.PredictionMetrics
	log       *zap.Logger
}

// NewPredictService builds the service. cacheSize 0 disables the cache and a
// nil history disables prediction recording.
func NewPredictService(p Predictor, cacheSize int, history PredictionRecorder, metrics *monitoring.PredictionMetrics, log *zap.Logger) (*PredictService, error) {
	if p == nil {
		return nil, errors.New("predictor is required")
	}
	if metrics == nil {
		metrics = monitoring.NewPredictionMetrics()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &PredictService{predictor: p, history: history, metrics: metrics, log: log}
	if cacheSize > 0 {
		cache, err := lru.New[ml.WeatherFeatures, ml.Prediction](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

func (s *PredictService) Metrics() *monitoring.PredictionMetrics {
	return s.metrics
}

func (s *PredictService) Info() ml.ArtifactInfo {
	return s.predictor.Info()
}

// Predict returns the view for one set of readings. Out-of-range readings
// fail with *InvalidInputError.
func (s *PredictService) Predict(ctx context.Context, f ml.WeatherFeatures) (presenter.View, error) {
	start := time.Now()
	if err := ml.ValidateFeatures(f); err != nil {
		s.metrics.RecordInvalid()
		return presenter.View{}, invalidInput(err)
	}
	if err := ctx.Err(); err != nil {
		return presenter.View{}, err
	}
	f = ml.SnapFeatures(f)

	p, cached := s.lookup(f)
	if !cached {
		var err error
		p, err = s.predictor.Predict(f)
		if err != nil {
			s.metrics.RecordFailure()
			return presenter.View{}, err
		}
		if s.cache != nil {
			s.cache.Add(f, p)
		}
	}
	s.metrics.RecordPrediction(p.Rain, cached, time.Since(start))

	if s.history != nil {
		rec := db.PredictionRecord{
			RequestID:   GetRequestID(ctx),
			Temperature: f.Temperature,
			Humidity:    f.Humidity,
			Pressure:    f.Pressure,
			WindSpeed:   f.WindSpeed,
			Sunshine:    f.Sunshine,
			Label:       p.Label,
			Probability: p.Probability,
		}
		if err := s.history.RecordPrediction(ctx, rec); err != nil {
			s.log.Warn("record prediction failed", zap.Error(err))
		}
	}
	return presenter.Build(p), nil
}

func (s *PredictService) lookup(f ml.WeatherFeatures) (ml.Prediction, bool) {
	if s.cache == nil {
		return ml.Prediction{}, false
	}
	return s.cache.Get(f)
}

func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &InvalidInputError{Fields: map[string]string{"input": err.Error()}}
	}
	bounds := make(map[string]ml.InputSpec)
	for _, spec := range ml.InputSpecs() {
		bounds[spec.Name] = spec
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := jsonName(fe.StructField())
		spec := bounds[name]
		fields[name] = fmt.Sprintf("must be between %g and %g", spec.Min, spec.Max)
	}
	return &InvalidInputError{Fields: fields}
}

// jsonName maps a WeatherFeatures field to its input name.
func jsonName(field string) string {
	switch field {
	case "Temperature":
		return "temperature"
	case "Humidity":
		return "humidity"
	case "Pressure":
		return "pressure"
	case "WindSpeed":
		return "wind_speed"
	case "Sunshine":
		return "sunshine"
	}
	return strings.ToLower(field)
}
