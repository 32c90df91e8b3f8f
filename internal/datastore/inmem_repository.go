package datastore

import (
	"context"
	"sort"
	"sync"
)

// InMemRepository is an in-memory implementation of the repository operations
// for testing and for CSV-backed runs that have no Postgres available.
type InMemRepository struct {
	mu       sync.RWMutex
	examples map[int64]Example
}

// NewInMemRepository creates an empty InMemRepository.
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		examples: make(map[int64]Example),
	}
}

// SeedExamples adds examples for test setup. Later seeds with the same id
// overwrite earlier ones.
func (r *InMemRepository) SeedExamples(examples []Example) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range examples {
		r.examples[e.ID] = e
	}
}

// FetchExampleRange returns examples with startID <= id <= endID, ordered by id.
func (r *InMemRepository) FetchExampleRange(ctx context.Context, startID, endID int64) ([]Example, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Example
	for id, e := range r.examples {
		if id >= startID && id <= endID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// AverageNumPickups mirrors the SQL AVG aggregate over the seeded examples.
func (r *InMemRepository) AverageNumPickups(ctx context.Context, f AggregateFilter) (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum float64
	var count int64
	for _, e := range r.examples {
		if e.ZoneID != f.ZoneID || e.ID > f.MaxID {
			continue
		}
		if f.Hour != nil && e.Hour() != *f.Hour {
			continue
		}
		sum += e.NumPickups
		count++
	}
	if count == 0 {
		// Matches the NULL average a SQL aggregate produces over zero rows.
		return 0, false, nil
	}
	return sum / float64(count), true, nil
}

// CountExamples returns the number of seeded examples.
func (r *InMemRepository) CountExamples(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.examples)), nil
}

// Clear removes all seeded examples.
func (r *InMemRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.examples = make(map[int64]Example)
}
