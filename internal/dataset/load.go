// Package dataset loads, cleans and writes the business table.
package dataset

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/fetcher"
	"github.com/biz-in-support/bizmap/internal/model"
)

// Format is the on-disk table format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks the table format from a file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Options controls how tables are read and written.
type Options struct {
	// Encoding is the CSV character encoding label. Default "iso-8859-1".
	Encoding string
	// HeaderRow is the number of preamble rows before the header row.
	HeaderRow int
}

func (o Options) encoding() string {
	if o.Encoding == "" {
		return "iso-8859-1"
	}
	return o.Encoding
}

// contactAliases are header names accepted for the contact link column.
var contactAliases = map[string]bool{
	model.ColContact: true,
	"Contact Link":   true,
	"ContactLink":    true,
}

// Load reads the table at path. Column names are trimmed before mapping.
// A missing file, an undecodable file or missing required columns yield a
// *LoadError.
func Load(ctx context.Context, path string, opts Options) (*model.Table, error) {
	rows, err := readRows(ctx, path, opts)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Path: path, Err: eris.New("dataset: file has no header row")}
	}

	header := normalizeHeader(rows[0])
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[col] = i
	}

	for _, col := range model.RequiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, &LoadError{Path: path, Err: eris.Errorf("dataset: missing required column %q", col)}
		}
	}

	columns := append([]string(nil), header...)
	for _, col := range model.EnrichedColumns {
		if _, ok := colIdx[col]; !ok {
			columns = append(columns, col)
		}
	}

	records := make([]model.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		records = append(records, parseRecord(header, row, i+2))
	}

	zap.L().Info("dataset: loaded table",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("columns", len(columns)),
	)

	return &model.Table{Columns: columns, Records: records}, nil
}

func readRows(ctx context.Context, path string, opts Options) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrap(err, "dataset: stat input")
	}

	if FormatFor(path) == FormatXLSX {
		return fetcher.ReadXLSX(path, fetcher.XLSXOptions{SkipRows: opts.HeaderRow})
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open input")
	}
	defer f.Close() //nolint:errcheck

	return fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{
		Encoding:   opts.encoding(),
		SkipRows:   opts.HeaderRow,
		LazyQuotes: true,
	})
}

// normalizeHeader trims column names and names blank or duplicate columns so
// every column survives a write/read cycle under a stable name.
func normalizeHeader(raw []string) []string {
	header := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, col := range raw {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if col == "" {
			col = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[col]; dup {
			seen[col] = n + 1
			col = col + "." + strconv.Itoa(n+1)
		} else {
			seen[col] = 0
		}
		header[i] = col
	}
	return header
}

func parseRecord(header, row []string, line int) model.Record {
	rec := model.Record{}
	contactSet := false
	for i, col := range header {
		var val string
		present := i < len(row)
		if present {
			val = row[i]
		}

		switch {
		case col == model.ColBusiness:
			rec.Business = val
		case col == model.ColAddress:
			// An empty cell is a null address; whitespace is kept so the
			// cleaner can tell blank from missing.
			if present && val != "" {
				addr := val
				rec.Address = &addr
			}
		case col == model.ColWebsite:
			rec.Website = val
		case contactAliases[col] && !contactSet:
			rec.ContactLink = val
			contactSet = true
		case col == model.ColLat:
			rec.Lat = parseCoord(val, col, line)
		case col == model.ColLon:
			rec.Lon = parseCoord(val, col, line)
		case col == model.ColCounty:
			rec.County = val
		case col == model.ColDriving:
			rec.Driving = val
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[col] = val
		}
	}
	if !rec.Resolved() {
		// County and driving link are only meaningful with both coordinates.
		rec = rec.WithoutLocation()
	}
	return rec
}

func parseCoord(val, col string, line int) *float64 {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		zap.L().Warn("dataset: unparseable coordinate treated as empty",
			zap.String("column", col),
			zap.Int("line", line),
			zap.String("value", val),
		)
		return nil
	}
	return &f
}
