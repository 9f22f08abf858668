package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/gspan/internal/source"
	"github.com/dgallion1/gspan/internal/transcript"
)

// Fetcher downloads an exported document by ID.
type Fetcher interface {
	Fetch(ctx context.Context, docID string) ([]byte, error)
}

// Worker processes a single document job.
type Worker struct {
	fetcher Fetcher
	parser  *transcript.Parser
	sources source.Options
	stats   *ParseStats
	log     *slog.Logger

	backoff func(attempt int) time.Duration
}

// NewWorker creates a Worker. fetcher and stats may be nil.
func NewWorker(fetcher Fetcher, parser *transcript.Parser, sources source.Options, stats *ParseStats, log *slog.Logger) *Worker {
	return &Worker{
		fetcher: fetcher,
		parser:  parser,
		sources: sources,
		stats:   stats,
		log:     log,
		backoff: Backoff,
	}
}

// Process runs fetch, load and parse for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Fetch
	if job.FileData() == nil {
		job.SetStatus(StatusFetching, "fetching")
		data, err := w.Fetch(ctx, job.DocID)
		if err != nil {
			log.Error("fetch failed", "error", err)
			job.AddError(fmt.Sprintf("fetch: %s", err))
			job.SetStatus(StatusFailed, "fetching")
			return
		}
		job.SetFileData(data)
		job.setDefaultFilename(job.DocID + ".html")
	}

	// Phase 2: Load
	job.SetStatus(StatusLoading, "loading")
	src, err := w.Load(job.FileData(), job.Snapshot().Filename)
	if err != nil {
		log.Error("load failed", "error", err)
		job.AddError(fmt.Sprintf("load: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}

	// Phase 3: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.Parse(src)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	job.SetResult(src.Title, doc)
	job.SetStatus(StatusCompleted, "done")
	log.Info("job complete",
		"status", doc.Status,
		"records", len(doc.Contents),
		"diagnostics", len(doc.Diagnostics),
	)
}

// Fetch downloads a document, retrying transient failures.
func (w *Worker) Fetch(ctx context.Context, docID string) ([]byte, error) {
	if w.fetcher == nil {
		return nil, fmt.Errorf("fetch %s: no export client configured", docID)
	}
	var data []byte
	err := retry(ctx, w.backoff,
		func(attempt int, err error) {
			w.log.Warn("retryable fetch error", "doc_id", docID, "attempt", attempt, "error", err)
		},
		func() error {
			var err error
			data, err = w.fetcher.Fetch(ctx, docID)
			return err
		})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Load turns raw file bytes into markup using the loader for filename.
func (w *Worker) Load(data []byte, filename string) (*source.Source, error) {
	loader, err := source.ForFile(filename, w.sources)
	if err != nil {
		return nil, err
	}
	src, err := loader.Load(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return src, nil
}

// Parse runs the transcript parser over a loaded source and records timing.
func (w *Worker) Parse(src *source.Source) (*transcript.Document, error) {
	start := time.Now()
	doc, err := w.parser.Parse(src.Markup)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if w.stats != nil {
			w.stats.RecordFailure(elapsed)
		}
		return nil, err
	}
	if w.stats != nil {
		w.stats.Record(elapsed, len(doc.Contents), len(doc.Diagnostics))
	}
	return doc, nil
}
