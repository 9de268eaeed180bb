// Package ingest loads the POS CSV export into normalized sales records.
// File-level problems are fatal; row-level problems drop the row and are
// only ever logged.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/salescope-lab/salescope/internal/core/money"
	"github.com/salescope-lab/salescope/internal/core/period"
	"github.com/salescope-lab/salescope/internal/core/sales"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Columns names the four required logical columns as they appear in the
// export header. Matching is exact string equality.
type Columns struct {
	Store   string
	Product string
	Amount  string
	Date    string
}

// DefaultColumns matches the BI export this pipeline was built for.
func DefaultColumns() Columns {
	return Columns{
		Store:   "FtoResumoVendaGeralItem[loja_id]",
		Product: "FtoResumoVendaGeralItem[material_descr]",
		Amount:  "FtoResumoVendaGeralItem[vl_total]",
		Date:    "FtoResumoVendaGeralItem[dt_contabil]",
	}
}

// Loader reads and normalizes a delimited export file.
type Loader struct {
	Columns   Columns
	Separator rune
}

// NewLoader returns a loader for the standard ";"-separated export.
func NewLoader(cols Columns) *Loader {
	if cols == (Columns{}) {
		cols = DefaultColumns()
	}
	return &Loader{Columns: cols, Separator: ';'}
}

// fallbackEncodings are tried in order when the file is not valid UTF-8.
// The export is usually Latin-1; Windows-1252 covers the printable range
// Latin-1 leaves undefined.
var fallbackEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"latin1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
}

// decode converts raw file bytes to UTF-8 text. Valid UTF-8 passes
// through; otherwise the fallback encodings are tried in order until one
// decodes without error.
func decode(raw []byte) (string, string, error) {
	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}
	for _, fe := range fallbackEncodings {
		decoded, err := fe.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		return string(decoded), fe.name, nil
	}
	return "", "", fmt.Errorf("%w: no supported encoding decodes the file", ErrInput)
}

// Load reads the export at path and returns the normalized records.
// Rows with a non-positive amount, an unparseable date, or an empty
// product are dropped with a warning; every surviving record satisfies
// the Record invariants.
func (l *Loader) Load(path string) ([]sales.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInput, path, err)
	}

	text, encName, err := decode(raw)
	if err != nil {
		return nil, err
	}
	slog.Info("Input file decoded", "path", path, "encoding", encName, "bytes", len(raw))

	return l.parse(strings.NewReader(text))
}

func (l *Loader) parse(r io.Reader) ([]sales.Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.Separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrInput, err)
	}

	idx, err := l.columnIndexes(header)
	if err != nil {
		return nil, err
	}

	var records []sales.Record
	var dropped int
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			dropped++
			slog.Warn("Skipping malformed row", "line", line, "error", err)
			continue
		}
		rec, ok := l.rowToRecord(row, idx, line)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	slog.Info("Input loaded", "records", len(records), "dropped", dropped)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no valid records in input", ErrInput)
	}
	return records, nil
}

type columnIndexes struct {
	store, product, amount, date int
}

func (l *Loader) columnIndexes(header []string) (columnIndexes, error) {
	find := func(name string) int {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
		return -1
	}

	idx := columnIndexes{
		store:   find(l.Columns.Store),
		product: find(l.Columns.Product),
		amount:  find(l.Columns.Amount),
		date:    find(l.Columns.Date),
	}

	var missing []string
	for _, c := range []struct {
		name string
		i    int
	}{
		{l.Columns.Store, idx.store},
		{l.Columns.Product, idx.product},
		{l.Columns.Amount, idx.amount},
		{l.Columns.Date, idx.date},
	} {
		if c.i < 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return columnIndexes{}, &MissingColumnsError{Missing: missing, Available: header}
	}
	return idx, nil
}

func (l *Loader) rowToRecord(row []string, idx columnIndexes, line int) (sales.Record, bool) {
	max := idx.store
	for _, i := range []int{idx.product, idx.amount, idx.date} {
		if i > max {
			max = i
		}
	}
	if len(row) <= max {
		slog.Warn("Skipping short row", "line", line, "fields", len(row))
		return sales.Record{}, false
	}

	product := sales.CanonicalProduct(row[idx.product])
	if product == "" || product == "NAN" {
		return sales.Record{}, false
	}

	amount := money.Parse(row[idx.amount])
	if !amount.IsPositive() {
		return sales.Record{}, false
	}

	date, err := period.ParseDate(row[idx.date])
	if err != nil {
		slog.Warn("Skipping row with invalid date", "line", line, "value", row[idx.date])
		return sales.Record{}, false
	}

	store := strings.TrimSpace(row[idx.store])
	if store == "" {
		return sales.Record{}, false
	}

	return sales.Record{
		StoreID: store,
		Product: product,
		Amount:  amount,
		Date:    date,
	}, true
}
