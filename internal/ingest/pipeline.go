// Package ingest loads per-genre spreadsheet exports, validates them, stamps ingest
// metadata and writes the combined rows to the store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bookdata-explorer/bookdata/internal/record"
	"github.com/bookdata-explorer/bookdata/internal/store"
	"github.com/bookdata-explorer/bookdata/internal/taxonomy"
)

// ErrNoInput is returned when the data directory holds no loadable files or every
// file failed.
var ErrNoInput = errors.New("no input data")

// Pipeline ingests a directory of input files into a store.
type Pipeline struct {
	Store   *store.Store
	Mapping *taxonomy.Mapping
	// Replace drops existing rows before inserting. Otherwise rows are appended.
	Replace bool
	// Now is the clock used for ingest timestamps.
	Now func() time.Time
}

// FailedFile is an input file that could not be loaded.
type FailedFile struct {
	Name string
	Err  error
}

// FileResult describes one successfully loaded file.
type FileResult struct {
	Name   string
	Genre  string
	Rows   int
	Issues []string
}

// Result summarizes an ingest run.
type Result struct {
	RunID     string
	Total     int
	Processed int
	Files     []FileResult
	Failed    []FailedFile
	Rows      int
}

// Files lists the loadable input files in dir, sorted by name.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Run ingests every input file in dir. A file that fails to load is logged and skipped;
// the run fails only when nothing could be loaded or the store write fails.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Result, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no input files in %s", ErrNoInput, dir)
	}
	slog.Info("Found input files", "dir", dir, "files", len(files))

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	res := &Result{RunID: uuid.NewString(), Total: len(files)}
	var rows []record.Record

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(path)
		genre, _ := GenreFromFilename(name)
		slog.Info("Processing file", "file", name, "genre", genre, "progress", fmt.Sprintf("%d/%d", i+1, len(files)))

		t, err := NewLoader(path).Load()
		if err != nil {
			slog.Error("Failed to process file", "file", name, "err", err)
			res.Failed = append(res.Failed, FailedFile{Name: name, Err: err})
			continue
		}

		issues := Validate(t, name)
		stamped := p.stamp(t.Rows, genre, name, res.RunID, now())
		rows = append(rows, stamped...)

		res.Processed++
		res.Files = append(res.Files, FileResult{Name: name, Genre: genre, Rows: len(stamped), Issues: issues})
		slog.Info("Loaded file", "file", name, "rows", len(stamped), "columns", len(t.Columns))
	}

	if res.Processed == 0 {
		return res, fmt.Errorf("%w: all %d files failed", ErrNoInput, len(files))
	}

	if p.Replace {
		err = p.Store.Reset(ctx)
	} else {
		err = p.Store.EnsureSchema(ctx)
	}
	if err != nil {
		return res, err
	}

	n, err := p.Store.InsertBooks(ctx, rows)
	if err != nil {
		return res, fmt.Errorf("failed to store books: %w", err)
	}
	res.Rows = n

	slog.Info("Ingest complete", "run", res.RunID, "files", res.Processed, "failed", len(res.Failed), "rows", n)
	return res, nil
}

func (p *Pipeline) stamp(rows []record.Record, genre, file, runID string, at time.Time) []record.Record {
	display := p.Mapping.GenreDisplayName(genre)
	date := at.Format("2006-01-02")
	ts := at.Format("2006-01-02T15:04:05.000000")

	out := make([]record.Record, len(rows))
	for i, r := range rows {
		r = r.Clone()
		r[record.Genre] = genre
		r[record.GenreDisplay] = display
		r[record.SourceFile] = file
		r[record.IngestedDate] = date
		r[record.ProcessingTimestamp] = ts
		r[record.IngestRun] = runID
		out[i] = r
	}
	return out
}
