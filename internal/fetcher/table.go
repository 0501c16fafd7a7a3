// Package fetcher reads tabular files (CSV, XLSX) into rows of strings.
package fetcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format identifies a supported tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks a format from the file extension. Unknown extensions
// are read as CSV.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// TableOptions selects where rows are read from. Each field applies to one
// format only.
type TableOptions struct {
	Sheet     string // xlsx worksheet; empty means the first
	Delimiter rune   // csv field separator; 0 means ','
}

// ReadTable reads every row of a CSV or XLSX file. Rows may have differing
// lengths.
func ReadTable(path string, opts TableOptions) ([][]string, error) {
	switch DetectFormat(path) {
	case FormatXLSX:
		return ReadXLSX(path, XLSXOptions{SheetName: opts.Sheet})
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "table: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(f, CSVOptions{Delimiter: opts.Delimiter, LazyQuotes: true})
	}
}
