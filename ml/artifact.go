package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	KindScaler       = "standard_scaler"
	KindRandomForest = "random_forest"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactMismatch = errors.New("artifact pair mismatch")
	ErrArtifactCorrupt  = errors.New("artifact corrupt")
)

// envelope is the on-disk document; it is stored zstd-compressed.
type envelope struct {
	Kind         string          `json:"kind"`
	FeatureNames []string        `json:"feature_names"`
	Scaler       string          `json:"scaler_fingerprint,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

// ArtifactInfo identifies a saved or loaded pair.
type ArtifactInfo struct {
	ModelPath         string   `json:"model_path"`
	ScalerPath        string   `json:"scaler_path"`
	ModelFingerprint  string   `json:"model_fingerprint"`
	ScalerFingerprint string   `json:"scaler_fingerprint"`
	FeatureNames      []string `json:"feature_names"`
}

var (
	encoderOnce = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	decoderOnce = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
)

// SaveArtifacts writes the scaler then the model, binding the model to the
// scaler's fingerprint.
func SaveArtifacts(modelPath, scalerPath string, model *RandomForest, scaler *StandardScaler) (ArtifactInfo, error) {
	if model == nil || scaler == nil {
		return ArtifactInfo{}, errors.New("model and scaler are required")
	}
	if !scaler.Fitted() {
		return ArtifactInfo{}, ErrScalerNotFitted
	}
	names := FeatureNames()

	scalerFP, err := writeArtifact(scalerPath, KindScaler, names, "", scaler)
	if err != nil {
		return ArtifactInfo{}, fmt.Errorf("save scaler: %w", err)
	}
	modelFP, err := writeArtifact(modelPath, KindRandomForest, names, scalerFP, model)
	if err != nil {
		return ArtifactInfo{}, fmt.Errorf("save model: %w", err)
	}
	return ArtifactInfo{
		ModelPath:         modelPath,
		ScalerPath:        scalerPath,
		ModelFingerprint:  modelFP,
		ScalerFingerprint: scalerFP,
		FeatureNames:      names,
	}, nil
}

// LoadArtifacts reads both files and checks that they belong together and
// match the current feature order.
func LoadArtifacts(modelPath, scalerPath string) (*RandomForest, *StandardScaler, ArtifactInfo, error) {
	var scaler StandardScaler
	scalerEnv, scalerFP, err := readArtifact(scalerPath, KindScaler, &scaler)
	if err != nil {
		return nil, nil, ArtifactInfo{}, err
	}
	var model RandomForest
	modelEnv, modelFP, err := readArtifact(modelPath, KindRandomForest, &model)
	if err != nil {
		return nil, nil, ArtifactInfo{}, err
	}

	names := FeatureNames()
	if !slices.Equal(scalerEnv.FeatureNames, names) || !slices.Equal(modelEnv.FeatureNames, names) {
		return nil, nil, ArtifactInfo{}, fmt.Errorf("%w: feature names %v / %v, want %v",
			ErrArtifactMismatch, modelEnv.FeatureNames, scalerEnv.FeatureNames, names)
	}
	if modelEnv.Scaler != scalerFP {
		return nil, nil, ArtifactInfo{}, fmt.Errorf("%w: model was trained with scaler %s, found %s",
			ErrArtifactMismatch, short(modelEnv.Scaler), short(scalerFP))
	}
	if !scaler.Fitted() || len(scaler.Mean) != len(names) || model.NFeatures != len(names) {
		return nil, nil, ArtifactInfo{}, fmt.Errorf("%w: unexpected feature count", ErrArtifactCorrupt)
	}

	return &model, &scaler, ArtifactInfo{
		ModelPath:         modelPath,
		ScalerPath:        scalerPath,
		ModelFingerprint:  modelFP,
		ScalerFingerprint: scalerFP,
		FeatureNames:      names,
	}, nil
}

func writeArtifact(path, kind string, names []string, scalerFP string, v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	doc, err := json.Marshal(envelope{Kind: kind, FeatureNames: names, Scaler: scalerFP, Payload: payload})
	if err != nil {
		return "", err
	}
	enc, err := encoderOnce()
	if err != nil {
		return "", err
	}
	blob := enc.EncodeAll(doc, nil)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return fingerprint(doc), nil
}

func readArtifact(path, kind string, v any) (envelope, string, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envelope{}, "", fmt.Errorf("%w: %s: %w", ErrArtifactNotFound, path, err)
		}
		return envelope{}, "", fmt.Errorf("read %s: %w", path, err)
	}
	dec, err := decoderOnce()
	if err != nil {
		return envelope{}, "", err
	}
	doc, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return envelope{}, "", fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, path, err)
	}

	var env envelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return envelope{}, "", fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, path, err)
	}
	if env.Kind != kind {
		return envelope{}, "", fmt.Errorf("%w: %s holds %q, want %q", ErrArtifactMismatch, path, env.Kind, kind)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return envelope{}, "", fmt.Errorf("%w: %s payload: %w", ErrArtifactCorrupt, path, err)
	}
	return env, fingerprint(doc), nil
}

func fingerprint(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	if fp == "" {
		return "<none>"
	}
	return fp
}
