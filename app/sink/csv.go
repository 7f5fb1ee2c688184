package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/lysyi3m/profile-comb/app/profile"
)

// utf8BOM keeps spreadsheet applications from misreading the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter is the local append-only archive. Every capture is appended
// as a new row; the file is never deduplicated or rewritten.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Append writes every record as one CSV row. A new or empty file gets the
// BOM and header first.
func (w *CSVWriter) Append(records []*profile.Record) error {
	writeHeader := true
	if info, err := os.Stat(w.path); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	if writeHeader {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if writeHeader {
		if err := writer.Write(Columns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, record := range records {
		if err := writer.Write(renderRow(record)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", record.Identifier, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}

	return nil
}
