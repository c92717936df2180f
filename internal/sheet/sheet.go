// Package sheet reads clash rows from a tabular export of the conflicts sheet.
//
// The sheet has the columns "Nature of Clash", "Clasher", "Clashed With".
// Columns past the third are ignored. Rows are numbered the way the
// spreadsheet numbers them, starting at 1.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lherron/clashsync/internal/domain"
)

// ErrMalformedRow is matched by every RowError.
var ErrMalformedRow = errors.New("malformed row")

// RowError reports a row that carries a recognized relation kind but
// cannot be read as a clash record.
type RowError struct {
	Row    int
	Cells  []string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Is implements errors.Is support
func (e *RowError) Is(target error) bool {
	return target == ErrMalformedRow
}

// Options controls how rows are read.
type Options struct {
	// StartRow is the first sheet row to read (1-based). Zero means 1.
	StartRow int

	// Header skips sheet row 1.
	Header bool

	// Delimiter is the cell separator. Zero means ','.
	Delimiter rune
}

// Row is one raw sheet row.
type Row struct {
	Number int
	Cells  []string
}

// Reader yields sheet rows honoring Options.
type Reader struct {
	csv  *csv.Reader
	opts Options
	n    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts Options) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	if opts.StartRow < 1 {
		opts.StartRow = 1
	}
	return &Reader{csv: cr, opts: opts}
}

// Next returns the next row, or io.EOF when the input is exhausted.
func (r *Reader) Next() (Row, error) {
	for {
		rec, err := r.csv.Read()
		if err != nil {
			if err == io.EOF {
				return Row{}, io.EOF
			}
			return Row{}, fmt.Errorf("row %d: %w", r.n+1, err)
		}
		r.n++

		if r.opts.Header && r.n == 1 {
			continue
		}
		if r.n < r.opts.StartRow {
			continue
		}
		return Row{Number: r.n, Cells: rec}, nil
	}
}

// ReadAll reads every remaining row.
func ReadAll(r io.Reader, opts Options) ([]Row, error) {
	reader := NewReader(r, opts)
	var rows []Row
	for {
		row, err := reader.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// Open opens the sheet export at path. "-" reads from stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if path == "" {
		return nil, fmt.Errorf("no conflicts sheet given (use --conflicts or CLASHSYNC_CONFLICTS)")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open conflicts sheet: %w", err)
	}
	return f, nil
}

// Record converts a row into a clash record.
//
// A row whose first cell is not a recognized relation kind is returned as
// a record carrying that unrecognized kind; deciding what that means is
// left to the caller. A recognized kind with fewer than three cells is a
// RowError.
func (row Row) Record() (domain.ClashRecord, error) {
	var kind string
	if len(row.Cells) > 0 {
		kind = row.Cells[0]
	}
	rec := domain.ClashRecord{Row: row.Number, Relation: domain.RelationKind(kind)}

	if _, ok := domain.ParseRelationKind(kind); !ok {
		if len(row.Cells) > 1 {
			rec.Subject = row.Cells[1]
		}
		if len(row.Cells) > 2 {
			rec.Target = row.Cells[2]
		}
		return rec, nil
	}

	if len(row.Cells) < 3 {
		return rec, &RowError{
			Row:    row.Number,
			Cells:  row.Cells,
			Reason: fmt.Sprintf("%s needs 3 cells, got %d", kind, len(row.Cells)),
		}
	}
	rec.Subject = row.Cells[1]
	rec.Target = row.Cells[2]
	return rec, nil
}
