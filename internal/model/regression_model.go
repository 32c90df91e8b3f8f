package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/taxi-pickups/internal/datastore"
	"github.com/your-org/taxi-pickups/internal/features"
	"github.com/your-org/taxi-pickups/internal/regression"
)

// FeatureWeight pairs a feature name with its fitted coefficient.
type FeatureWeight struct {
	Name   string
	Weight float64
}

// TrainDiagnostics describes one completed training run. It replaces
// print-based verbose output: callers decide what to do with it.
type TrainDiagnostics struct {
	Examples    int
	Features    int
	FitDuration time.Duration
	// TopWeights and BottomWeights hold the highest- and lowest-weighted
	// features. Both are nil when the regressor exposes no coefficients;
	// that is not an error, the diagnostic is just unavailable.
	TopWeights    []FeatureWeight
	BottomWeights []FeatureWeight
}

// RegressionModel trains an injected regression capability on the full train
// region and predicts single examples against it. The three fitted variants
// differ only in the regressor and the matrix representation they get.
type RegressionModel struct {
	name      string
	dataset   TrainSet
	regressor regression.Regressor
	extractor *features.Extractor
	batchSize int
	topN      int
	logger    *zap.Logger

	trained bool
	version string
	diag    *TrainDiagnostics
}

// NewRegressionModel binds a regressor and extractor to the dataset in deps.
func NewRegressionModel(name string, r regression.Regressor, e *features.Extractor, deps Deps) *RegressionModel {
	return &RegressionModel{
		name:      name,
		dataset:   deps.Dataset,
		regressor: r,
		extractor: e,
		batchSize: deps.BatchSize,
		topN:      deps.TopFeatures,
		logger:    deps.Logger,
	}
}

// Train drains every train batch from the dataset into memory, vectorizes the
// batch with a freshly fitted vocabulary and fits the regressor once. The
// aggregated table is small enough to fit in RAM, so there is no streaming or
// partial fit.
func (m *RegressionModel) Train(ctx context.Context) error {
	var examples []datastore.Example
	for m.dataset.HasMoreTrainExamples() {
		batch, err := m.dataset.GetTrainExamples(ctx, m.batchSize)
		if err != nil {
			return fmt.Errorf("%s: fetching train batch: %w", m.name, err)
		}
		examples = append(examples, batch...)
	}
	if len(examples) == 0 {
		return fmt.Errorf("%s: train set is empty", m.name)
	}

	x, err := m.extractor.Vectorize(examples, true)
	if err != nil {
		return fmt.Errorf("%s: vectorizing train set: %w", m.name, err)
	}
	y := make([]float64, len(examples))
	for i, e := range examples {
		y[i] = e.NumPickups
	}

	start := time.Now()
	if err := m.regressor.Fit(x, y); err != nil {
		return fmt.Errorf("%s: fitting regressor: %w", m.name, err)
	}

	m.trained = true
	m.version = fmt.Sprintf("model-%s", uuid.New())
	m.diag = &TrainDiagnostics{
		Examples:    len(examples),
		Features:    len(m.extractor.FeatureNameIndices()),
		FitDuration: time.Since(start),
	}
	if c, ok := m.regressor.(regression.Coefficienter); ok {
		m.diag.TopWeights, m.diag.BottomWeights = rankFeatureWeights(
			m.extractor.FeatureNameIndices(), c.Coefficients(), m.topN)
	}
	m.logDiagnostics()
	return nil
}

// Predict vectorizes one example against the trained vocabulary and runs the
// regressor on it. Raw output is clamped to zero.
func (m *RegressionModel) Predict(ctx context.Context, example datastore.Example) (float64, error) {
	if !m.trained {
		return 0, fmt.Errorf("%s: %w", m.name, ErrNotTrained)
	}
	x, err := m.extractor.Vectorize([]datastore.Example{example}, false)
	if err != nil {
		return 0, fmt.Errorf("%s: vectorizing example %d: %w", m.name, example.ID, err)
	}
	preds, err := m.regressor.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("%s: predicting example %d: %w", m.name, example.ID, err)
	}
	if len(preds) != 1 {
		return 0, fmt.Errorf("%s: expected one prediction, got %d", m.name, len(preds))
	}
	return clampNonNegative(preds[0]), nil
}

// Describe returns the variant's name tag.
func (m *RegressionModel) Describe() string { return m.name }

// Version returns the tag assigned to the last completed training run.
func (m *RegressionModel) Version() string { return m.version }

// Diagnostics returns the diagnostics of the last completed training run, or
// an error before the first run.
func (m *RegressionModel) Diagnostics() (*TrainDiagnostics, error) {
	if m.diag == nil {
		return nil, errors.New("no training run has completed")
	}
	return m.diag, nil
}

func (m *RegressionModel) logDiagnostics() {
	m.logger.Info("model trained",
		zap.String("model", m.name),
		zap.String("version", m.version),
		zap.Int("examples", m.diag.Examples),
		zap.Int("features", m.diag.Features),
		zap.Duration("fit_duration", m.diag.FitDuration),
	)
	if m.diag.TopWeights == nil {
		m.logger.Debug("regressor exposes no coefficients, skipping feature weight diagnostics",
			zap.String("model", m.name))
		return
	}
	for _, fw := range m.diag.TopWeights {
		m.logger.Debug("top feature weight", zap.String("feature", fw.Name), zap.Float64("weight", fw.Weight))
	}
	for _, fw := range m.diag.BottomWeights {
		m.logger.Debug("bottom feature weight", zap.String("feature", fw.Name), zap.Float64("weight", fw.Weight))
	}
}

// rankFeatureWeights returns the n highest- and n lowest-weighted features,
// both ordered by descending weight.
func rankFeatureWeights(indices map[string]int, coefs []float64, n int) (top, bottom []FeatureWeight) {
	weights := make([]FeatureWeight, 0, len(indices))
	for name, idx := range indices {
		if idx < len(coefs) {
			weights = append(weights, FeatureWeight{Name: name, Weight: coefs[idx]})
		}
	}
	sort.Slice(weights, func(i, j int) bool { return weights[i].Weight > weights[j].Weight })

	if n > len(weights) {
		n = len(weights)
	}
	top = append(top, weights[:n]...)
	bottom = append(bottom, weights[len(weights)-n:]...)
	return top, bottom
}
