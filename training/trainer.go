// Package training runs the offline pipeline: load the dataset, split it,
// fit the scaler and the forest, evaluate on the held-out rows and persist
// the artifact pair.
package training

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weathersense/config"
	"weathersense/db"
	"weathersense/ml"
	"weathersense/pipeline"
)

const ModelName = "random_forest"

// RunRecorder stores a summary of each finished run. *db.Store satisfies it.
type RunRecorder interface {
	RecordTrainingRun(ctx context.Context, run db.TrainingRun) error
}

// Result describes one completed run.
type Result struct {
	RunID      string
	Rows       int
	TrainRows  int
	TestRows   int
	Evaluation ml.Evaluation
	Artifacts  ml.ArtifactInfo
}

type Trainer struct {
	cfg     config.Config
	log     *zap.Logger
	out     io.Writer
	history RunRecorder
	now     func() time.Time
}

// NewTrainer builds a trainer. The console report goes to out; history may
// be nil.
func NewTrainer(cfg config.Config, log *zap.Logger, out io.Writer, history RunRecorder) *Trainer {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Trainer{
		cfg:     cfg,
		log:     log,
		out:     out,
		history: history,
		now:     time.Now,
	}
}

// ForestConfig maps the training section onto forest hyper-parameters.
func ForestConfig(tc config.TrainingConfig) ml.ForestConfig {
	fc := ml.DefaultForestConfig()
	fc.Trees = tc.Trees
	fc.MaxDepth = tc.MaxDepth
	fc.MinSamplesSplit = tc.MinSamplesSplit
	fc.MinSamplesLeaf = tc.MinSamplesLeaf
	fc.Seed = tc.Seed
	fc.Workers = tc.Workers
	return fc
}

// Run executes one training run. Any dataset problem aborts it before
// artifacts are touched.
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := t.log.With(zap.String("run_id", runID))
	start := t.now()

	ds, err := pipeline.LoadDataset(t.cfg.Dataset.Path, t.cfg.Dataset.Encoding)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(t.out, "Available columns: %v\n", ds.Columns())

	set, err := pipeline.BuildTrainingSet(ds)
	if err != nil {
		return nil, err
	}
	balance := ml.ClassBalance(set.Labels)
	log.Info("dataset loaded",
		zap.String("path", t.cfg.Dataset.Path),
		zap.Int("rows", len(set.Labels)),
		zap.Int("dry", balance[ml.LabelDry]),
		zap.Int("rain", balance[ml.LabelRain]),
	)

	split, err := ml.TrainTestSplit(set.Features, set.Labels, t.cfg.Training.TestRatio, t.cfg.Training.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	scaler := &ml.StandardScaler{}
	if err := scaler.Fit(split.TrainX); err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	trainX, err := scaler.TransformAll(split.TrainX)
	if err != nil {
		return nil, err
	}
	testX, err := scaler.TransformAll(split.TestX)
	if err != nil {
		return nil, err
	}

	forest := ml.NewRandomForest(ForestConfig(t.cfg.Training))
	if err := forest.Train(ctx, trainX, split.TrainY); err != nil {
		return nil, fmt.Errorf("train forest: %w", err)
	}

	predicted := make([]int, len(testX))
	for i, row := range testX {
		label, _, err := forest.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("predict test row %d: %w", i, err)
		}
		predicted[i] = label
	}
	eval, err := ml.Evaluate(split.TestY, predicted)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	fmt.Fprintf(t.out, "Accuracy: %.4f\n", eval.Accuracy)
	fmt.Fprintf(t.out, "Confusion Matrix:\n%s", eval.Confusion)
	fmt.Fprintf(t.out, "Classification Report:\n%s", eval.Report())

	info, err := ml.SaveArtifacts(t.cfg.Artifacts.ModelPath, t.cfg.Artifacts.ScalerPath, forest, scaler)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(t.out, "Model trained and saved. Features used: %v\n", set.Columns)

	result := &Result{
		RunID:      runID,
		Rows:       len(set.Labels),
		TrainRows:  len(split.TrainY),
		TestRows:   len(split.TestY),
		Evaluation: eval,
		Artifacts:  info,
	}
	log.Info("training finished",
		zap.Float64("accuracy", eval.Accuracy),
		zap.Int("train_rows", result.TrainRows),
		zap.Int("test_rows", result.TestRows),
		zap.String("model", info.ModelPath),
		zap.String("scaler", info.ScalerPath),
		zap.Duration("elapsed", t.now().Sub(start)),
	)

	if t.history != nil {
		if err := t.history.RecordTrainingRun(ctx, t.summary(result)); err != nil {
			// artifacts are already written; a lost log row is not fatal
			log.Warn("record training run failed", zap.Error(err))
		}
	}
	return result, nil
}

func (t *Trainer) summary(r *Result) db.TrainingRun {
	rain := r.Evaluation.Classes[ml.LabelRain]
	return db.TrainingRun{
		RunID:             r.RunID,
		ModelName:         ModelName,
		DatasetPath:       t.cfg.Dataset.Path,
		Accuracy:          r.Evaluation.Accuracy,
		Precision:         rain.Precision,
		Recall:            rain.Recall,
		F1:                rain.F1,
		DataPoints:        r.Rows,
		TrainPoints:       r.TrainRows,
		TestPoints:        r.TestRows,
		ModelFingerprint:  r.Artifacts.ModelFingerprint,
		ScalerFingerprint: r.Artifacts.ScalerFingerprint,
		TrainedAt:         t.now().UTC(),
	}
}

// Watch retrains every time the dataset file settles after a change. Failed
// runs are logged and the watch continues. It returns when ctx is done.
func (t *Trainer) Watch(ctx context.Context, debounce time.Duration) error {
	t.log.Info("watching dataset", zap.String("path", t.cfg.Dataset.Path), zap.Duration("debounce", debounce))
	return pipeline.WatchDataset(ctx, t.cfg.Dataset.Path, debounce, func() {
		if _, err := t.Run(ctx); err != nil {
			t.log.Error("retraining failed", zap.Error(err))
		}
	})
}
