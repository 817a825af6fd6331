package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/snepalysis/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxOpenFiles caps how many dataset files are read at once.
const DefaultMaxOpenFiles = 64

// DefaultExtension is the file extension of dataset files.
const DefaultExtension = ".csv"

// IngestOptions tunes directory ingestion.
type IngestOptions struct {
	// MaxOpenFiles bounds concurrent file readers (default: DefaultMaxOpenFiles).
	MaxOpenFiles int
	// Extension selects dataset files by suffix (default: DefaultExtension).
	Extension string
}

func (o IngestOptions) withDefaults() IngestOptions {
	if o.MaxOpenFiles <= 0 {
		o.MaxOpenFiles = DefaultMaxOpenFiles
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	return o
}

// fileResult is what one file contributes. Each worker owns exactly one.
type fileResult struct {
	records []Record
	stats   Stats
}

// Ingest reads every dataset file in dir concurrently and returns the union
// of accepted records with aggregate counters.
//
// Files are independent: an unrecognized header or an I/O error only drops
// that file's contribution. The only error returned is failure to list dir or
// cancellation of ctx.
func Ingest(ctx context.Context, dir string, reg *Registry, opts IngestOptions) (*RecordSet, Stats, error) {
	opts = opts.withDefaults()
	logger := logging.WithFields(ctx, "dir", dir)
	start := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read dataset directory: %w", err)
	}

	results := make([]fileResult, len(entries))

	var g errgroup.Group
	g.SetLimit(opts.MaxOpenFiles)

	for i, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), opts.Extension) {
			results[i] = fileResult{stats: Stats{FilesSeen: 1, FilesSkipped: 1}}
			continue
		}

		i := i
		path := filepath.Join(dir, entry.Name())
		g.Go(func() error {
			results[i] = ingestFile(ctx, path, reg)
			return nil
		})
	}

	// Workers never return errors; Wait is the fan-in barrier.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, Stats{}, fmt.Errorf("ingest cancelled: %w", err)
	}

	set := NewRecordSet()
	var stats Stats
	for _, res := range results {
		stats.Add(res.stats)
		set.AddAll(res.records)
	}

	logger.Info("ingestion complete",
		"files", stats.FilesSeen,
		"files_skipped", stats.FilesSkipped,
		"files_failed", stats.FilesFailed,
		"rows", stats.RowsRead,
		"matched", stats.RowsMatched,
		"rejected", stats.RowsRejected,
		"unique_records", set.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return set, stats, nil
}

// ingestFile streams one file. Row 0 selects the binding for the whole file;
// an unresolved header or a read failure discards everything from the file.
func ingestFile(ctx context.Context, path string, reg *Registry) fileResult {
	logger := logging.WithFields(ctx, "file", filepath.Base(path))
	skipped := fileResult{stats: Stats{FilesSeen: 1, FilesSkipped: 1}}
	failed := fileResult{stats: Stats{FilesSeen: 1, FilesSkipped: 1, FilesFailed: 1}}

	if ctx.Err() != nil {
		return skipped
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("open dataset file", "error", err)
		return failed
	}
	defer f.Close()

	counter := wrapForStreaming(f)
	reader := csv.NewReader(counter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			logger.Debug("empty dataset file")
			return skipped
		}
		logger.Warn("read header", "error", err)
		return failed
	}

	binding, err := reg.Resolve(header)
	if err != nil {
		logger.Debug("skipping file", "reason", err, "header", strings.Join(header, ","))
		return skipped
	}

	res := fileResult{stats: Stats{FilesSeen: 1}}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.stats.RowsRead++
				res.stats.RowsRejected++
				continue
			}
			logger.Warn("read row", "error", err, "rows_read", res.stats.RowsRead)
			return failed
		}

		res.stats.RowsRead++
		rec, err := binding.Extract(row)
		if err != nil {
			res.stats.RowsRejected++
			continue
		}
		res.stats.RowsMatched++
		res.records = append(res.records, rec)
	}

	logger.Debug("file ingested",
		"layout", binding.Name(),
		"rows", res.stats.RowsRead,
		"matched", res.stats.RowsMatched,
		"bytes", counter.bytesRead,
	)
	return res
}
