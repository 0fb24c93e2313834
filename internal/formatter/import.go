package formatter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/desertthunder/greekdeck/internal/models"
	"github.com/desertthunder/greekdeck/internal/shared"
)

// ReadFrequencyCSV reads a frequency list: a header row, then lemma and frequency columns.
// Columns after the second are ignored and short rows are kept, leaving validation to the ledger.
func ReadFrequencyCSV(r io.Reader) ([]models.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read header: %v", shared.ErrInvalidInput, err)
	}

	var rows []models.ImportRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}

		line, _ := reader.FieldPos(0)
		row := models.ImportRow{Line: line}
		if len(record) > 0 {
			row.Lemma = record[0]
		}
		if len(record) > 1 {
			row.Frequency = record[1]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
