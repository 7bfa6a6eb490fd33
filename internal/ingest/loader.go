package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/bookdata-explorer/bookdata/internal/export"
	"github.com/bookdata-explorer/bookdata/internal/record"
)

// UnknownGenre is used for files whose name does not carry a genre code.
const UnknownGenre = "unknown"

var filenamePattern = regexp.MustCompile(`^(\d{8})_(.+)_raw_data\.[A-Za-z0-9]+$`)

// GenreFromFilename extracts the genre code and report date from a file named
// "YYYYMMDD_<genre>_raw_data.<ext>".
func GenreFromFilename(name string) (genre, date string) {
	m := filenamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return UnknownGenre, ""
	}
	return m[2], m[1]
}

// SupportedExtensions lists the input formats Load understands.
var SupportedExtensions = []string{".xlsx", ".csv", ".jsonl", ".json", ".parquet"}

// Supported reports whether path has a loadable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Table is the content of one input file.
type Table struct {
	Columns []string
	Rows    []record.Record
}

// Loader reads book rows from one input file.
type Loader struct {
	path string
}

// NewLoader creates a loader for path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads every row of the file.
func (l *Loader) Load() (Table, error) {
	return l.load(-1)
}

// LoadSample reads at most limit rows.
func (l *Loader) LoadSample(limit int) (Table, error) {
	if limit < 0 {
		limit = 0
	}
	return l.load(limit)
}

func (l *Loader) load(limit int) (Table, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to stat input file: %w", err)
	}
	slog.Debug("Opening input file", "path", l.path, "size", humanize.Bytes(uint64(info.Size())))

	ext := strings.ToLower(filepath.Ext(l.path))
	switch ext {
	case ".xlsx":
		return l.loadXLSX(limit)
	case ".csv":
		return l.loadCSV(limit)
	case ".jsonl", ".json":
		return l.loadJSONL(limit)
	case ".parquet":
		return l.loadParquet(limit)
	default:
		return Table{}, fmt.Errorf("unsupported file format: %s (supported: %s)", ext, strings.Join(SupportedExtensions, ", "))
	}
}

func full(t Table, limit int) bool {
	return limit >= 0 && len(t.Rows) >= limit
}

// loadXLSX reads the first sheet. The first row is the header.
func (l *Loader) loadXLSX(limit int) (Table, error) {
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, nil
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	defer rows.Close()

	var t Table
	for rows.Next() && !full(t, limit) {
		cells, err := rows.Columns()
		if err != nil {
			return Table{}, fmt.Errorf("failed to read row: %w", err)
		}
		if t.Columns == nil {
			t.Columns = header(cells)
			continue
		}
		if r := rowFromCells(t.Columns, cells); r != nil {
			t.Rows = append(t.Rows, r)
		}
	}
	if err := rows.Error(); err != nil {
		return Table{}, fmt.Errorf("failed to iterate sheet: %w", err)
	}

	slog.Debug("Finished reading workbook", "sheet", sheets[0], "rows", len(t.Rows), "columns", len(t.Columns))
	return t, nil
}

func (l *Loader) loadCSV(limit int) (Table, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	cr := csv.NewReader(bufio.NewReader(file))
	cr.FieldsPerRecord = -1

	var t Table
	for !full(t, limit) {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to parse csv: %w", err)
		}
		if t.Columns == nil {
			t.Columns = header(cells)
			continue
		}
		if r := rowFromCells(t.Columns, cells); r != nil {
			t.Rows = append(t.Rows, r)
		}
	}

	slog.Debug("Finished reading CSV file", "rows", len(t.Rows), "columns", len(t.Columns))
	return t, nil
}

// loadJSONL reads one JSON object per line. Malformed lines abort a full load and are
// skipped with a warning when sampling.
func (l *Loader) loadJSONL(limit int) (Table, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	var t Table
	seen := map[string]bool{}
	lineNum := 0
	for !full(t, limit) && scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		dec := json.NewDecoder(strings.NewReader(string(line)))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if limit >= 0 {
				slog.Warn("Skipping malformed JSON line", "line", lineNum, "err", err)
				continue
			}
			return Table{}, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		r := make(record.Record, len(obj))
		for k, v := range obj {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
			r[k] = CoerceValue(k, v)
		}
		t.Rows = append(t.Rows, r)
	}
	if err := scanner.Err(); err != nil {
		return Table{}, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "rows", len(t.Rows), "lines", lineNum)
	return t, nil
}

// loadParquet reads files in the export.BookRow layout. Missing columns read as null.
func (l *Loader) loadParquet(limit int) (Table, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Table{}, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return Table{}, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	var t Table
	for _, f := range pf.Schema().Fields() {
		t.Columns = append(t.Columns, f.Name())
	}

	reader := parquet.NewGenericReader[export.BookRow](pf)
	defer reader.Close()

	batch := make([]export.BookRow, 128)
	for !full(t, limit) {
		n, err := reader.Read(batch)
		for _, row := range batch[:n] {
			if full(t, limit) {
				break
			}
			t.Rows = append(t.Rows, row.Record())
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "rows", len(t.Rows))
	return t, nil
}

func header(cells []string) []string {
	cols := make([]string, len(cells))
	for i, c := range cells {
		cols[i] = strings.TrimSpace(c)
	}
	return cols
}

// rowFromCells builds a record from a text row. Fully blank rows yield nil.
func rowFromCells(columns, cells []string) record.Record {
	r := make(record.Record, len(columns))
	blank := true
	for i, col := range columns {
		if col == "" {
			continue
		}
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		v := CoerceCell(col, cell)
		if v != nil {
			blank = false
		}
		r[col] = v
	}
	if blank {
		return nil
	}
	return r
}
