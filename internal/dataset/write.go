package dataset

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/fetcher"
	"github.com/biz-in-support/bizmap/internal/model"
)

// Write replaces the file at path with table. The table is written to a
// temporary file in the same directory and renamed over path, so readers
// never observe a partial file. Failures yield a *WriteError.
func Write(path string, table *model.Table, opts Options) error {
	if err := write(path, table, opts); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	zap.L().Debug("dataset: wrote table",
		zap.String("path", path),
		zap.Int("records", len(table.Records)),
	)
	return nil
}

func write(path string, table *model.Table, opts Options) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "dataset: create temp file")
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	rows := Rows(table)

	if FormatFor(path) == FormatXLSX {
		if err := tmp.Close(); err != nil {
			return eris.Wrap(err, "dataset: close temp file")
		}
		if err := fetcher.WriteXLSX(tmpPath, "", rows); err != nil {
			return err
		}
	} else {
		if err := fetcher.WriteCSV(tmp, rows, fetcher.CSVOptions{Encoding: opts.encoding()}); err != nil {
			_ = tmp.Close()
			return err
		}
		if err := tmp.Sync(); err != nil {
			_ = tmp.Close()
			return eris.Wrap(err, "dataset: sync temp file")
		}
		if err := tmp.Close(); err != nil {
			return eris.Wrap(err, "dataset: close temp file")
		}
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return eris.Wrap(err, "dataset: chmod temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return eris.Wrap(err, "dataset: rename temp file")
	}
	committed = true
	return nil
}

// Rows renders table as a header row followed by one row per record.
func Rows(table *model.Table) [][]string {
	rows := make([][]string, 0, len(table.Records)+1)
	rows = append(rows, append([]string(nil), table.Columns...))
	for _, rec := range table.Records {
		row := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			row[i] = cellValue(rec, col)
		}
		rows = append(rows, row)
	}
	return rows
}

func cellValue(rec model.Record, col string) string {
	switch col {
	case model.ColBusiness:
		return rec.Business
	case model.ColAddress:
		return rec.AddressText()
	case model.ColWebsite:
		return rec.Website
	case model.ColLat:
		return formatCoordPtr(rec.Lat)
	case model.ColLon:
		return formatCoordPtr(rec.Lon)
	case model.ColCounty:
		return rec.County
	case model.ColDriving:
		return rec.Driving
	}
	if v, ok := rec.Extra[col]; ok {
		return v
	}
	if contactAliases[col] {
		return rec.ContactLink
	}
	return ""
}

func formatCoordPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return model.FormatCoord(*f)
}
