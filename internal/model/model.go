// Package model defines the predictor contract shared by the query-average
// baselines and the fitted regression variants, plus the factory that selects
// a variant by name.
package model

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/your-org/taxi-pickups/internal/datastore"
	"github.com/your-org/taxi-pickups/internal/features"
	"github.com/your-org/taxi-pickups/internal/regression"
)

// ErrNotTrained is returned by Predict on a fitted variant before Train.
var ErrNotTrained = errors.New("model has not been trained")

// ErrUnknownModel is returned by New for an unrecognized model name.
var ErrUnknownModel = errors.New("unknown model name")

// Model is the common contract every predictor variant implements. Predict
// never returns a negative value: pickup counts cannot be negative, so raw
// estimator output is clamped at this boundary.
type Model interface {
	// Train fits the model on the train region of the bound dataset. For the
	// baselines it is a no-op.
	Train(ctx context.Context) error
	// Predict estimates the number of pickups for one example.
	Predict(ctx context.Context, example datastore.Example) (float64, error)
	// Describe returns a human-readable name/version tag.
	Describe() string
}

// TrainSet is the dataset capability the models consume: batched train
// iteration plus the split boundary that scopes every direct store query.
type TrainSet interface {
	HasMoreTrainExamples() bool
	GetTrainExamples(ctx context.Context, batchSize int) ([]datastore.Example, error)
	LastTrainID() int64
}

// Aggregator is the store capability the baselines consume.
type Aggregator interface {
	AverageNumPickups(ctx context.Context, f datastore.AggregateFilter) (float64, bool, error)
}

// Deps bundles the collaborators model construction needs.
type Deps struct {
	Dataset TrainSet
	Store   Aggregator
	// BatchSize is the train batch size for fitted variants; defaults to 100.
	BatchSize int
	// TopFeatures is how many best/worst feature weights the train
	// diagnostics report; defaults to 15.
	TopFeatures int
	Logger      *zap.Logger
}

// Names lists the selectable model names.
func Names() []string {
	return []string{"baseline", "betterbaseline", "linear", "svr", "dtr"}
}

// New constructs the model variant registered under name.
func New(name string, deps Deps) (Model, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = 100
	}
	if deps.TopFeatures <= 0 {
		deps.TopFeatures = 15
	}

	switch name {
	case "baseline":
		return NewZoneAverageBaseline(deps.Store, deps.Dataset), nil
	case "betterbaseline":
		return NewZoneHourAverageBaseline(deps.Store, deps.Dataset), nil
	case "linear":
		return NewRegressionModel("linear [linear regression model]",
			regression.NewSGDRegressor(), features.NewExtractor(true), deps), nil
	case "svr":
		return NewRegressionModel("svr [support vector regression model]",
			regression.NewLinearSVR(), features.NewExtractor(true), deps), nil
	case "dtr":
		// The decision tree reads every matrix cell, so it gets dense input.
		return NewRegressionModel("dtr [decision tree regression model]",
			regression.NewDecisionTreeRegressor(), features.NewExtractor(false), deps), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}

// clampNonNegative enforces the domain invariant at the model boundary.
// Clamping an already non-negative value is a no-op.
func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
