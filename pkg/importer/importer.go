package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/meisai-dev/meisai/pkg/models"
	"github.com/meisai-dev/meisai/pkg/parser"
)

// Status classifies the outcome of one file import. A duplicate skip and a
// file that simply had no valid rows are distinct outcomes.
type Status string

const (
	StatusImported Status = "imported"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Result is the outcome for a single statement file.
type Result struct {
	File     string
	Status   Status
	Inserted int
	Err      error
}

// Summary aggregates a multi-file run.
type Summary struct {
	Results  []Result
	Inserted int
	Skipped  int
	Failed   int
}

// Store is the persistence surface the importer needs.
type Store interface {
	HasImport(ctx context.Context, service, file string) (bool, error)
	InsertAll(ctx context.Context, records []*models.Record) (int, error)
}

// Importer loads statement files into the ledger, one transaction per file.
type Importer struct {
	store  Store
	parser *parser.Parser
	logger *log.Logger
}

func New(store Store, parser *parser.Parser, logger *log.Logger) *Importer {
	return &Importer{store: store, parser: parser, logger: logger}
}

// ImportFile imports one statement file. A file already imported under the
// same (service, file) pair is skipped before anything is read or parsed.
func (i *Importer) ImportFile(ctx context.Context, path, service string) Result {
	file := filepath.Base(path)

	exists, err := i.store.HasImport(ctx, service, file)
	if err != nil {
		return Result{File: file, Status: StatusFailed,
			Err: fmt.Errorf("error checking for prior import: %w", err)}
	}
	if exists {
		i.logger.Info("skipped: file already imported", "service", service, "file", file)
		return Result{File: file, Status: StatusSkipped}
	}

	records, err := i.parser.ParseFile(path, service)
	if err != nil {
		return Result{File: file, Status: StatusFailed, Err: err}
	}

	inserted := 0
	if len(records) > 0 {
		inserted, err = i.store.InsertAll(ctx, records)
		if err != nil {
			return Result{File: file, Status: StatusFailed, Err: err}
		}
	}

	i.logger.Info("imported", "service", service, "file", file, "records", inserted)
	return Result{File: file, Status: StatusImported, Inserted: inserted}
}

// ImportDir imports every statement export in dir, one file at a time in
// lexicographic order. A failed file does not stop the run.
func (i *Importer) ImportDir(ctx context.Context, dir, service string) (Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("error reading directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".xls") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	var summary Summary
	for _, name := range files {
		result := i.ImportFile(ctx, filepath.Join(dir, name), service)
		switch result.Status {
		case StatusImported:
			summary.Inserted += result.Inserted
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
			i.logger.Error("failed to import file", "file", result.File, "error", result.Err)
		}
		summary.Results = append(summary.Results, result)
	}

	i.logger.Info("run complete", "files", len(files),
		"inserted", summary.Inserted, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}
