// Package pipeline loads the weather CSV and turns it into labeled training
// rows.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Dataset is a loaded CSV with named columns. Every cell is kept as text and
// parsed per column on demand so malformed values can be reported precisely.
type Dataset struct {
	Path  string
	frame dataframe.DataFrame
}

// MissingColumnsError lists every required column absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns: [%s]. check dataset", strings.Join(e.Columns, " "))
}

// MalformedValueError reports a cell that is not a finite number. Row is the
// 1-based data row, not counting the header.
type MalformedValueError struct {
	Column string
	Row    int
	Value  string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("column %s row %d: malformed value %q", e.Column, e.Row, e.Value)
}

var ErrEmptyDataset = errors.New("dataset has no rows")

// LoadDataset opens path and reads it with the given text encoding
// ("utf-8", "latin1" or "windows-1252").
func LoadDataset(path, encoding string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	ds, err := ReadDataset(file, encoding)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	ds.Path = path
	return ds, nil
}

func ReadDataset(r io.Reader, encoding string) (*Dataset, error) {
	decoded, err := decodedReader(r, encoding)
	if err != nil {
		return nil, err
	}
	df := dataframe.ReadCSV(decoded,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, df.Err
	}
	if df.Nrow() == 0 {
		return nil, ErrEmptyDataset
	}
	return &Dataset{frame: df}, nil
}

// decodedReader converts the input to UTF-8. UTF-8 input may carry a BOM,
// which spreadsheet exports often add in front of the first column name.
func decodedReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func (d *Dataset) Columns() []string {
	return d.frame.Names()
}

func (d *Dataset) Rows() int {
	return d.frame.Nrow()
}

// RequireColumns fails with a *MissingColumnsError naming, in the order
// given, every column not present.
func (d *Dataset) RequireColumns(names ...string) error {
	present := d.Columns()
	var missing []string
	for _, name := range names {
		if !slices.Contains(present, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// FloatColumn parses a column as finite float64 values.
func (d *Dataset) FloatColumn(name string) ([]float64, error) {
	if err := d.RequireColumns(name); err != nil {
		return nil, err
	}
	records := d.frame.Col(name).Records()
	values := make([]float64, len(records))
	for i, raw := range records {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || !isFinite(v) {
			return nil, &MalformedValueError{Column: name, Row: i + 1, Value: raw}
		}
		values[i] = v
	}
	return values, nil
}
