package datastore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// LoadCSVRepository reads an aggregated pickups export into an in-memory
// repository, letting the harness run without a Postgres connection.
//
// The CSV file is expected to have a header and the following columns:
// id, start_datetime, zone_id, num_pickups
func LoadCSVRepository(filePath string) (*InMemRepository, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			// Empty file yields an empty repository, not an error.
			return NewInMemRepository(), nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	repo := NewInMemRepository()
	var batch []Example
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		line++
		if len(record) < 4 {
			return nil, fmt.Errorf("line %d: expected 4 columns, got %d", line, len(record))
		}

		id, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad id %q: %w", line, record[0], err)
		}
		start, err := time.Parse(csvTimeLayout, record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad start_datetime %q: %w", line, record[1], err)
		}
		zoneID, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad zone_id %q: %w", line, record[2], err)
		}
		numPickups, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad num_pickups %q: %w", line, record[3], err)
		}

		batch = append(batch, Example{
			ID:            id,
			StartDatetime: start,
			ZoneID:        zoneID,
			NumPickups:    numPickups,
		})
	}

	repo.SeedExamples(batch)
	return repo, nil
}
