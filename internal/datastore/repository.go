// Package datastore provides access to the aggregated pickups table that
// backs the train/evaluate harness.
package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Example is one historical record of taxi pickups in a zone/hour cell.
// IDs are assigned by the aggregation pipeline in increasing temporal order.
type Example struct {
	ID            int64     `db:"id"`
	StartDatetime time.Time `db:"start_datetime"`
	ZoneID        int64     `db:"zone_id"`
	NumPickups    float64   `db:"num_pickups"`
}

// Hour returns the hour-of-day bucket of the example, in UTC. The table
// stores wall-clock UTC timestamps, so this matches what EXTRACT(HOUR ...)
// yields for the same row regardless of the session TimeZone.
func (e Example) Hour() int {
	return e.StartDatetime.UTC().Hour()
}

// RowSourceError wraps a failed query against the pickups table. The harness
// never retries: a failed fetch aborts the whole run.
type RowSourceError struct {
	Op  string
	Err error
}

func (e *RowSourceError) Error() string {
	return fmt.Sprintf("row source: %s: %v", e.Op, e.Err)
}

func (e *RowSourceError) Unwrap() error { return e.Err }

// AggregateFilter restricts an average-pickups aggregate query. MaxID bounds
// the scan to the train region; Hour is optional.
type AggregateFilter struct {
	ZoneID int64
	Hour   *int
	MaxID  int64
}

// PgxPool is the subset of pgxpool.Pool methods the repository uses.
// Tests inject a mock through it.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Repository reads examples from the aggregated pickups table in Postgres.
type Repository struct {
	db    PgxPool
	table string
}

// NewRepository creates a Repository over the given pool and table name.
func NewRepository(db PgxPool, table string) *Repository {
	return &Repository{db: db, table: table}
}

// FetchExampleRange fetches rows with startID <= id <= endID, ordered by id.
// It is a pure read: retries do not alter the store.
func (r *Repository) FetchExampleRange(ctx context.Context, startID, endID int64) ([]Example, error) {
	query := fmt.Sprintf(`
        SELECT id, start_datetime, zone_id, num_pickups
        FROM %s
        WHERE id BETWEEN $1 AND $2
        ORDER BY id ASC;
    `, r.table)
	rows, err := r.db.Query(ctx, query, startID, endID)
	if err != nil {
		return nil, &RowSourceError{Op: "fetch example range", Err: err}
	}
	defer rows.Close()

	var examples []Example
	for rows.Next() {
		var e Example
		if err := rows.Scan(&e.ID, &e.StartDatetime, &e.ZoneID, &e.NumPickups); err != nil {
			return nil, &RowSourceError{Op: "scan example row", Err: err}
		}
		examples = append(examples, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &RowSourceError{Op: "iterate example rows", Err: err}
	}
	return examples, nil
}

// AverageNumPickups returns the average pickup count over rows matching the
// filter. The boolean is false when no rows matched (SQL NULL average), which
// the baselines treat as a 0.0 prediction rather than an error.
//
// The aggregate must come back as exactly one row; anything else means the
// store broke its contract and the run should abort.
func (r *Repository) AverageNumPickups(ctx context.Context, f AggregateFilter) (float64, bool, error) {
	query := fmt.Sprintf(`
        SELECT AVG(num_pickups) AS avg_num_pickups
        FROM %s
        WHERE zone_id = $1 AND id <= $2
    `, r.table)
	args := []interface{}{f.ZoneID, f.MaxID}
	if f.Hour != nil {
		query += ` AND EXTRACT(HOUR FROM start_datetime) = $3`
		args = append(args, *f.Hour)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return 0, false, &RowSourceError{Op: "average num_pickups", Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, false, &RowSourceError{Op: "average num_pickups", Err: err}
		}
		return 0, false, &RowSourceError{Op: "average num_pickups", Err: fmt.Errorf("aggregate returned no rows")}
	}
	var avg decimal.NullDecimal
	if err := rows.Scan(&avg); err != nil {
		return 0, false, &RowSourceError{Op: "scan aggregate row", Err: err}
	}
	if rows.Next() {
		return 0, false, &RowSourceError{Op: "average num_pickups", Err: fmt.Errorf("aggregate returned more than one row")}
	}
	if err := rows.Err(); err != nil {
		return 0, false, &RowSourceError{Op: "average num_pickups", Err: err}
	}

	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Decimal.InexactFloat64(), true, nil
}

// CountExamples returns the total number of rows in the table. Used to size
// the dataset when the configuration leaves dataset size at 0.
func (r *Repository) CountExamples(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s;`, r.table)
	var n int64
	if err := r.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, &RowSourceError{Op: "count examples", Err: err}
	}
	return n, nil
}
