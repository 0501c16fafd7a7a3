package fetcher

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
}

// ReadCSV reads all records from r. Records may have a variable number of
// fields.
func ReadCSV(r io.Reader, opts CSVOptions) ([][]string, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		rows = append(rows, record)
	}
	return rows, nil
}
