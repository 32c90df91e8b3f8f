package model

import (
	"context"
	"fmt"

	"github.com/your-org/taxi-pickups/internal/datastore"
)

// QueryAverageBaseline predicts pickups by averaging historical counts for
// the example's zone (and optionally its hour of day) over the train region
// of the store. There is no fitted artifact: every prediction is a live
// aggregate, so the model tracks whatever the current train region holds.
//
// Correctness hinges on bounding the aggregate by the dataset's last train
// id. These predictors bypass the dataset's batching entirely, and that bound
// is the only thing keeping test labels out of the average.
type QueryAverageBaseline struct {
	name      string
	store     Aggregator
	dataset   TrainSet
	matchHour bool
}

// NewZoneAverageBaseline predicts with the zone-wide historical average.
func NewZoneAverageBaseline(store Aggregator, ds TrainSet) *QueryAverageBaseline {
	return &QueryAverageBaseline{
		name:    "baseline [baseline version 1]",
		store:   store,
		dataset: ds,
	}
}

// NewZoneHourAverageBaseline predicts with the historical average for the
// zone at the same hour of day.
func NewZoneHourAverageBaseline(store Aggregator, ds TrainSet) *QueryAverageBaseline {
	return &QueryAverageBaseline{
		name:      "betterbaseline [baseline version 2]",
		store:     store,
		dataset:   ds,
		matchHour: true,
	}
}

// Train is a no-op: the baseline is defined lazily as the current train-set
// average.
func (b *QueryAverageBaseline) Train(ctx context.Context) error { return nil }

// Predict issues one aggregate-average query scoped to the train region. A
// zone (or zone/hour cell) with no train rows predicts 0.0; that is the
// documented fallback, not an error.
func (b *QueryAverageBaseline) Predict(ctx context.Context, example datastore.Example) (float64, error) {
	filter := datastore.AggregateFilter{
		ZoneID: example.ZoneID,
		MaxID:  b.dataset.LastTrainID(),
	}
	if b.matchHour {
		hour := example.Hour()
		filter.Hour = &hour
	}

	avg, found, err := b.store.AverageNumPickups(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%s: aggregate query for example %d: %w", b.name, example.ID, err)
	}
	if !found {
		return 0, nil
	}
	return clampNonNegative(avg), nil
}

// Describe returns the variant's name tag.
func (b *QueryAverageBaseline) Describe() string { return b.name }
