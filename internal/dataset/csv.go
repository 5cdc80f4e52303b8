package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadCSV reads a dataset from a CSV file with one sample per row, the
// class label in the first column and pixel values after it. Pixels in
// [0, 255] are normalized to [0, 1]; values already in [0, 1] pass
// through unchanged. A non-numeric first row is treated as a header
// and skipped.
func LoadCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true

	var (
		images   []float32
		labels   []int32
		features int
	)

	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV %s: %w", path, err)
		}
		row++

		label, err := strconv.Atoi(record[0])
		if err != nil {
			if row == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("CSV row %d: bad label %q: %w", row, record[0], err)
		}

		if features == 0 {
			features = len(record) - 1
		} else if len(record)-1 != features {
			return nil, fmt.Errorf("CSV row %d: expected %d pixels, got %d", row, features, len(record)-1)
		}

		for col, cell := range record[1:] {
			value, err := strconv.ParseFloat(cell, 32)
			if err != nil {
				return nil, fmt.Errorf("CSV row %d, column %d: bad pixel %q: %w", row, col+2, cell, err)
			}
			if value > 1 {
				value /= 255.0
			}
			images = append(images, float32(value))
		}
		labels = append(labels, int32(label))
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("CSV %s contains no samples", path)
	}

	return &Dataset{
		Images:   images,
		Labels:   labels,
		Samples:  len(labels),
		Features: features,
		Classes:  countClasses(labels),
	}, nil
}
