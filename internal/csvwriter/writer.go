// Package csvwriter exports per-example evaluation results as CSV.
package csvwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/your-org/taxi-pickups/internal/evaluator"
)

var header = []string{"example_id", "true_num_pickups", "predicted_num_pickups"}

// ResultWriter writes evaluation results to a CSV file, one row per test
// example.
type ResultWriter struct {
	file   *os.File
	writer *csv.Writer
	logger *zap.Logger
}

// NewResultWriter creates the output file and writes the header row.
func NewResultWriter(filePath string, logger *zap.Logger) (*ResultWriter, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	w := &ResultWriter{
		file:   file,
		writer: csv.NewWriter(file),
		logger: logger,
	}
	if err := w.writer.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return w, nil
}

// WriteResult writes every (id, true, predicted) triple of the result.
func (w *ResultWriter) WriteResult(result evaluator.Result) error {
	for i, id := range result.ExampleIDs {
		record := []string{
			strconv.FormatInt(id, 10),
			strconv.FormatFloat(result.TrueLabels[i], 'f', -1, 64),
			strconv.FormatFloat(result.PredictedLabels[i], 'f', -1, 64),
		}
		if err := w.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record to CSV: %w", err)
		}
	}
	w.logger.Info("evaluation results exported",
		zap.String("path", w.file.Name()),
		zap.Int("rows", len(result.ExampleIDs)),
	)
	return nil
}

// Close flushes buffered rows and closes the file.
func (w *ResultWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return w.file.Close()
}
