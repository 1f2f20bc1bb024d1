// Package fetcher reads and writes tabular rows in CSV and XLSX form.
package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter rune // default ','
	// Encoding is a WHATWG label ("utf-8", "iso-8859-1", "windows-1252").
	// Empty means the input is already UTF-8.
	Encoding   string
	SkipRows   int // leading records dropped before the first row is sent
	Comment    rune
	LazyQuotes bool
	TrimSpace  bool
}

// LookupEncoding resolves a WHATWG encoding label. Labels such as
// "iso-8859-1" resolve to windows-1252, a superset of Latin-1.
func LookupEncoding(label string) (encoding.Encoding, error) {
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unsupported encoding %q", label)
	}
	return enc, nil
}

// StreamCSV reads CSV records and sends them to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		if opts.Encoding != "" {
			enc, err := LookupEncoding(opts.Encoding)
			if err != nil {
				errCh <- err
				return
			}
			r = transform.NewReader(r, enc.NewDecoder())
		}

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		skipped := 0
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if skipped < opts.SkipRows {
				skipped++
				continue
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV collects every row StreamCSV produces.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([][]string, error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

// WriteCSV writes rows to w in the given encoding. Characters the encoding
// cannot represent are replaced rather than failing the write.
func WriteCSV(w io.Writer, rows [][]string, opts CSVOptions) error {
	var tw io.WriteCloser
	if opts.Encoding != "" {
		enc, err := LookupEncoding(opts.Encoding)
		if err != nil {
			return err
		}
		tw = transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder()))
		w = tw
	}

	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	// The transformer buffers; closing it flushes the tail.
	if tw != nil {
		if err := tw.Close(); err != nil {
			return eris.Wrap(err, "csv: flush encoder")
		}
	}
	return nil
}
