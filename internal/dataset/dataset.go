// Package dataset exposes ordered, batched, leak-free access to the train and
// test partitions of the aggregated pickups table.
package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/taxi-pickups/internal/datastore"
)

// ErrOutOfRange is returned when a test example is requested past the end of
// the dataset. It signals a usage error, not a transient condition.
var ErrOutOfRange = errors.New("example id outside dataset range")

// RowSource is the read capability the dataset needs from the store.
type RowSource interface {
	FetchExampleRange(ctx context.Context, startID, endID int64) ([]datastore.Example, error)
}

// Dataset owns the train/test split boundary and a single forward-only cursor
// over the row source. It is not safe for concurrent use; the harness drives
// it from one goroutine.
//
// Usage:
//
//	ds, _ := dataset.New(src, 0.7, 20) // 14 train examples, 6 test examples
//	for ds.HasMoreTrainExamples() {
//	    batch, _ := ds.GetTrainExamples(ctx, 2)
//	    // ...
//	}
//	for ds.HasMoreTestExamples() {
//	    example, _ := ds.GetTestExample(ctx)
//	    // ...
//	}
type Dataset struct {
	src RowSource

	lastTrainID int64
	lastTestID  int64

	// currentExampleID is the id of the next example to be fetched. It only
	// ever advances.
	currentExampleID int64
}

// New creates a Dataset over the row source. trainFraction must be in (0, 1];
// the first floor(trainFraction*datasetSize) ids are the train region and the
// rest are the test region. A split that leaves the train region empty is
// allowed and yields an all-test dataset.
func New(src RowSource, trainFraction float64, datasetSize int64) (*Dataset, error) {
	if trainFraction <= 0 || trainFraction > 1 {
		return nil, fmt.Errorf("train fraction must be in (0, 1], got %v", trainFraction)
	}
	if datasetSize < 0 {
		return nil, fmt.Errorf("dataset size must be non-negative, got %d", datasetSize)
	}
	return &Dataset{
		src:              src,
		lastTrainID:      int64(trainFraction * float64(datasetSize)),
		lastTestID:       datasetSize,
		currentExampleID: 1,
	}, nil
}

// LastTrainID returns the id of the last example in the train region. It is
// the sole authority on the train/test boundary; predictors that query the
// store directly must bound their scans by it.
func (d *Dataset) LastTrainID() int64 { return d.lastTrainID }

// LastTestID returns the id of the last example in the test region.
func (d *Dataset) LastTestID() int64 { return d.lastTestID }

// HasMoreTrainExamples reports whether the cursor is still inside the train
// region.
func (d *Dataset) HasMoreTrainExamples() bool {
	return d.currentExampleID <= d.lastTrainID
}

// HasMoreTestExamples reports whether the cursor has not passed the end of
// the dataset.
func (d *Dataset) HasMoreTestExamples() bool {
	return d.currentExampleID <= d.lastTestID
}

// GetTrainExamples fetches up to batchSize train examples starting at the
// cursor. A batch that would cross the split boundary is truncated to the
// remaining train rows; test rows are never returned from this call.
func (d *Dataset) GetTrainExamples(ctx context.Context, batchSize int) ([]datastore.Example, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", batchSize)
	}
	if !d.HasMoreTrainExamples() {
		return nil, nil
	}

	n := int64(batchSize)
	if d.currentExampleID+n-1 > d.lastTrainID {
		n = d.lastTrainID - d.currentExampleID + 1
	}

	examples, err := d.getExamples(ctx, d.currentExampleID, n)
	if err != nil {
		return nil, err
	}
	// The cursor advances by rows actually returned, which assumes contiguous
	// ids. A gap spanning the whole batch would stall the cursor forever, so
	// fail fast instead.
	if len(examples) == 0 {
		return nil, &datastore.RowSourceError{
			Op:  "fetch train batch",
			Err: fmt.Errorf("no rows in id range [%d, %d]", d.currentExampleID, d.currentExampleID+n-1),
		}
	}
	d.currentExampleID += int64(len(examples))
	return examples, nil
}

// GetTestExample fetches the single test example at the cursor and advances
// past it.
//
// If the cursor is still inside the train region, it is first fast-forwarded
// to the first test id: requesting test examples finalizes training. Callers
// that never drained the train batches therefore still get the first
// test-region row, never a train row.
func (d *Dataset) GetTestExample(ctx context.Context) (datastore.Example, error) {
	if d.currentExampleID > d.lastTestID {
		return datastore.Example{}, fmt.Errorf("cannot access example %d: outside dataset size range of %d: %w",
			d.currentExampleID, d.lastTestID, ErrOutOfRange)
	}

	if d.currentExampleID <= d.lastTrainID {
		d.currentExampleID = d.lastTrainID + 1
	}

	examples, err := d.getExamples(ctx, d.currentExampleID, 1)
	if err != nil {
		return datastore.Example{}, err
	}
	if len(examples) != 1 {
		return datastore.Example{}, fmt.Errorf("expected exactly one example with id %d, got %d",
			d.currentExampleID, len(examples))
	}
	d.currentExampleID++
	return examples[0], nil
}

// getExamples performs an inclusive range fetch [startID, startID+count-1].
// It is a pure read; cursor advancement is up to the caller.
func (d *Dataset) getExamples(ctx context.Context, startID, count int64) ([]datastore.Example, error) {
	return d.src.FetchExampleRange(ctx, startID, startID+count-1)
}
