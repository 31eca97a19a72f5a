// Package artifact persists the scaler and model of one training run as a
// pair of self-describing JSON documents, and loads them back with full
// validation.
//
// Both documents carry the same pair_id and the ordered feature names. A
// pair is only usable when kinds, versions, pair ids and feature lists agree
// and every tree is well formed.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/diabrisk/internal/domain/boosting"
	"github.com/okian/diabrisk/internal/domain/evaluation"
	"github.com/okian/diabrisk/internal/domain/scaler"
	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/pkg/logger"
	"github.com/okian/diabrisk/pkg/metrics"
)

// File names inside an artifact directory.
const (
	ScalerFile = "scaler.json"
	ModelFile  = "diabetes_risk_model.json"
)

// Document kinds and the format version written by this package.
const (
	KindScaler    = "diabrisk.scaler"
	KindModel     = "diabrisk.gbt_regressor"
	FormatVersion = 1
)

// Bundle is a matched scaler and model together with their provenance.
type Bundle struct {
	PairID    string
	CreatedAt time.Time
	Schema    *schema.Schema
	Scaler    *scaler.State
	Model     *boosting.Ensemble
	Params    boosting.Params
	Metrics   evaluation.Metrics
}

type header struct {
	Kind          string    `json:"kind"`
	FormatVersion int       `json:"format_version"`
	PairID        string    `json:"pair_id"`
	Features      []string  `json:"features"`
	CreatedAt     time.Time `json:"created_at"`
}

type scalerDoc struct {
	header
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type modelDoc struct {
	header
	BaseScore    float64            `json:"base_score"`
	LearningRate float64            `json:"learning_rate"`
	Params       boosting.Params    `json:"params"`
	Metrics      evaluation.Metrics `json:"metrics"`
	Trees        []boosting.Tree    `json:"trees"`
}

// Save writes b into dir. A missing PairID is generated and a zero CreatedAt
// is stamped; the completed bundle is returned. Both documents are encoded
// and written to temporary files before either final name is replaced, and a
// failed install leaves the previous pair in place.
func Save(ctx context.Context, dir string, b Bundle, opts ...Option) (Bundle, error) {
	cfg := newSettings(opts)

	if b.Scaler == nil || b.Model == nil {
		return b, ErrIncompleteBundle
	}
	features := b.Model.Features()
	if !sameNames(features, b.Scaler.Features()) {
		return b, fmt.Errorf("%w: scaler %v, model %v", ErrFeatureMismatch, b.Scaler.Features(), features)
	}
	if b.PairID == "" {
		b.PairID = uuid.New().String()
	} else if _, err := uuid.Parse(b.PairID); err != nil {
		return b, fmt.Errorf("%w: %q", ErrInvalidPairID, b.PairID)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = cfg.now().UTC()
	}
	if b.Schema == nil {
		s, err := schema.ForFeatures(features)
		if err != nil {
			return b, err
		}
		b.Schema = s
	}

	h := header{
		FormatVersion: FormatVersion,
		PairID:        b.PairID,
		Features:      features,
		CreatedAt:     b.CreatedAt,
	}
	sh, mh := h, h
	sh.Kind, mh.Kind = KindScaler, KindModel

	scalerJSON, err := json.MarshalIndent(scalerDoc{header: sh, Mean: b.Scaler.Mean(), Scale: b.Scaler.Scale()}, "", "  ")
	if err != nil {
		return b, fmt.Errorf("encode scaler: %w", err)
	}
	modelJSON, err := json.MarshalIndent(modelDoc{
		header:       mh,
		BaseScore:    b.Model.BaseScore(),
		LearningRate: b.Model.LearningRate(),
		Params:       b.Params,
		Metrics:      b.Metrics,
		Trees:        b.Model.Trees(),
	}, "", "  ")
	if err != nil {
		return b, fmt.Errorf("encode model: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return b, err
	}
	if err := writePair(dir, scalerJSON, modelJSON, cfg.rename); err != nil {
		metrics.RecordArtifactSave("failure")
		return b, err
	}
	metrics.RecordArtifactSave("success")

	cfg.logger.Info(ctx, "artifacts saved",
		logger.String("dir", dir),
		logger.String("pair_id", b.PairID),
		logger.Int("features", len(features)),
		logger.Int("trees", b.Model.NumTrees()),
	)
	return b, nil
}

// writePair installs both documents or neither. The current scaler is kept
// aside until the model is in place and put back if the model install fails.
func writePair(dir string, scalerJSON, modelJSON []byte, rename func(string, string) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	scalerTmp, err := writeTemp(dir, ScalerFile, scalerJSON)
	if err != nil {
		return err
	}
	defer os.Remove(scalerTmp)
	modelTmp, err := writeTemp(dir, ModelFile, modelJSON)
	if err != nil {
		return err
	}
	defer os.Remove(modelTmp)

	scalerPath := filepath.Join(dir, ScalerFile)
	backup, err := keepAside(dir, scalerPath)
	if err != nil {
		return err
	}
	if backup != "" {
		defer os.Remove(backup)
	}

	if err := rename(scalerTmp, scalerPath); err != nil {
		return fmt.Errorf("install scaler: %w", err)
	}
	if err := rename(modelTmp, filepath.Join(dir, ModelFile)); err != nil {
		err = fmt.Errorf("install model: %w", err)
		if rerr := restore(backup, scalerPath, rename); rerr != nil {
			return errors.Join(err, fmt.Errorf("restore scaler: %w", rerr))
		}
		return err
	}
	return nil
}

// keepAside copies the file at path next to it and returns the copy's name,
// or "" when there is nothing to keep.
func keepAside(dir, path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read current %s: %w", filepath.Base(path), err)
	}
	return writeTemp(dir, filepath.Base(path)+".prev", data)
}

// restore puts backup back at path, or removes path when there was no
// previous file.
func restore(backup, path string, rename func(string, string) error) error {
	if backup == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return rename(backup, path)
}

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return f.Name(), nil
}

// Load reads and validates the pair in dir. Every failure is an
// *ArtifactLoadError naming the offending file.
func Load(ctx context.Context, dir string, opts ...Option) (*Bundle, error) {
	cfg := newSettings(opts)

	b, err := load(ctx, dir)
	if err != nil {
		metrics.RecordArtifactLoad("failure")
		cfg.logger.Error(ctx, "artifact load failed", logger.String("dir", dir), logger.Error(err))
		return nil, err
	}
	metrics.RecordArtifactLoad("success")
	cfg.logger.Info(ctx, "artifacts loaded",
		logger.String("dir", dir),
		logger.String("pair_id", b.PairID),
		logger.String("features", b.Schema.String()),
		logger.Int("trees", b.Model.NumTrees()),
	)
	return b, nil
}

func load(ctx context.Context, dir string) (*Bundle, error) {
	scalerPath := filepath.Join(dir, ScalerFile)
	modelPath := filepath.Join(dir, ModelFile)

	var sd scalerDoc
	if err := readDoc(scalerPath, &sd); err != nil {
		return nil, &ArtifactLoadError{Path: scalerPath, Err: err}
	}
	s, err := checkHeader(sd.header, KindScaler)
	if err != nil {
		return nil, &ArtifactLoadError{Path: scalerPath, Err: err}
	}
	st, err := scaler.Restore(sd.Features, sd.Mean, sd.Scale)
	if err != nil {
		return nil, &ArtifactLoadError{Path: scalerPath, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var md modelDoc
	if err := readDoc(modelPath, &md); err != nil {
		return nil, &ArtifactLoadError{Path: modelPath, Err: err}
	}
	if _, err := checkHeader(md.header, KindModel); err != nil {
		return nil, &ArtifactLoadError{Path: modelPath, Err: err}
	}
	if !sameNames(md.Features, sd.Features) {
		return nil, &ArtifactLoadError{Path: modelPath, Err: fmt.Errorf("%w: scaler has %d %v, model has %d %v",
			ErrFeatureMismatch, len(sd.Features), sd.Features, len(md.Features), md.Features)}
	}
	if md.PairID != sd.PairID {
		return nil, &ArtifactLoadError{Path: modelPath, Err: fmt.Errorf("%w: scaler %s, model %s",
			ErrPairMismatch, sd.PairID, md.PairID)}
	}
	ens, err := boosting.New(md.Features, md.BaseScore, md.LearningRate, md.Trees)
	if err != nil {
		return nil, &ArtifactLoadError{Path: modelPath, Err: err}
	}

	return &Bundle{
		PairID:    sd.PairID,
		CreatedAt: md.CreatedAt,
		Schema:    s,
		Scaler:    st,
		Model:     ens,
		Params:    md.Params,
		Metrics:   md.Metrics,
	}, nil
}

func readDoc(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			return fmt.Errorf("decode at offset %d: %w", syntax.Offset, err)
		}
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func checkHeader(h header, kind string) (*schema.Schema, error) {
	if h.Kind != kind {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongKind, h.Kind, kind)
	}
	if h.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.FormatVersion)
	}
	if _, err := uuid.Parse(h.PairID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPairID, h.PairID)
	}
	return schema.ForFeatures(h.Features)
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
