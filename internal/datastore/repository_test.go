package datastore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/taxi-pickups/internal/datastore"
)

func at(hour int) time.Time {
	return time.Date(2014, 1, 15, hour, 0, 0, 0, time.UTC)
}

func seededRepo() *datastore.InMemRepository {
	repo := datastore.NewInMemRepository()
	repo.SeedExamples([]datastore.Example{
		{ID: 1, StartDatetime: at(8), ZoneID: 100, NumPickups: 4},
		{ID: 2, StartDatetime: at(9), ZoneID: 100, NumPickups: 6},
		{ID: 3, StartDatetime: at(8), ZoneID: 200, NumPickups: 10},
		{ID: 4, StartDatetime: at(8), ZoneID: 100, NumPickups: 20},
		{ID: 5, StartDatetime: at(10), ZoneID: 200, NumPickups: 2},
	})
	return repo
}

func TestInMemRepository_FetchExampleRange(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()

	examples, err := repo.FetchExampleRange(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, examples, 3)
	assert.Equal(t, []int64{2, 3, 4}, []int64{examples[0].ID, examples[1].ID, examples[2].ID})

	// Ranges past the seeded ids return what exists, in order.
	examples, err = repo.FetchExampleRange(ctx, 4, 100)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, int64(4), examples[0].ID)

	examples, err = repo.FetchExampleRange(ctx, 50, 60)
	require.NoError(t, err)
	assert.Empty(t, examples)
}

func TestInMemRepository_AverageNumPickups(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()
	hour8 := 8

	tests := []struct {
		name      string
		filter    datastore.AggregateFilter
		wantAvg   float64
		wantFound bool
	}{
		{
			name:      "zone average over train prefix",
			filter:    datastore.AggregateFilter{ZoneID: 100, MaxID: 4},
			wantAvg:   10, // (4+6+20)/3
			wantFound: true,
		},
		{
			name:      "id bound excludes later rows",
			filter:    datastore.AggregateFilter{ZoneID: 100, MaxID: 2},
			wantAvg:   5, // (4+6)/2
			wantFound: true,
		},
		{
			name:      "zone and hour",
			filter:    datastore.AggregateFilter{ZoneID: 100, Hour: &hour8, MaxID: 5},
			wantAvg:   12, // (4+20)/2
			wantFound: true,
		},
		{
			name:      "no matching rows",
			filter:    datastore.AggregateFilter{ZoneID: 999, MaxID: 5},
			wantFound: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, found, err := repo.AverageNumPickups(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if !cmp.Equal(tt.wantAvg, avg, cmpopts.EquateApprox(0.000001, 0)) {
				t.Errorf("AverageNumPickups() got = %v, want %v", avg, tt.wantAvg)
			}
		})
	}
}

func TestInMemRepository_CountExamples(t *testing.T) {
	repo := seededRepo()
	n, err := repo.CountExamples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	repo.Clear()
	n, err = repo.CountExamples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestExample_HourIsUTC(t *testing.T) {
	// 03:00 in UTC-5 is the 08:00 UTC bucket; the hour must not depend on the
	// location attached to the scanned time.
	est := time.FixedZone("UTC-5", -5*60*60)
	e := datastore.Example{StartDatetime: time.Date(2014, 1, 15, 3, 0, 0, 0, est)}
	assert.Equal(t, 8, e.Hour())

	repo := datastore.NewInMemRepository()
	repo.SeedExamples([]datastore.Example{
		{ID: 1, StartDatetime: time.Date(2014, 1, 15, 3, 0, 0, 0, est), ZoneID: 100, NumPickups: 6},
		{ID: 2, StartDatetime: at(8), ZoneID: 100, NumPickups: 10},
	})
	hour8 := 8
	avg, found, err := repo.AverageNumPickups(context.Background(),
		datastore.AggregateFilter{ZoneID: 100, Hour: &hour8, MaxID: 2})
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 8.0, avg, 0.000001)
}

func TestRowSourceError_Unwrap(t *testing.T) {
	inner := assert.AnError
	err := &datastore.RowSourceError{Op: "fetch example range", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "fetch example range")
}
