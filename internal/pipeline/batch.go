package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/mdtidy/internal/config"
	"github.com/nao1215/mdtidy/internal/model"
)

// BatchProcessor converts many documents concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
// A failing document never stops the others; its error stays on the
// document.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each document.
	pipelineFactory func() *Pipeline

	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of documents converted at once.
// Non-positive values keep the default of one per CPU.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultConcurrency(),
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs every document through its own pipeline and returns
// them in input order. Documents not started before ctx was cancelled are
// nil in the result, and the context error is returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, docs []*model.Document) ([]*model.Document, error) {
	results := make([]*model.Document, len(docs))
	err := bp.ProcessBatchWithCallback(ctx, docs, func(doc *model.Document, index int) {
		// Each goroutine owns one index.
		results[index] = doc
	})
	return results, err
}

// ProcessBatchWithCallback runs every document and calls callback as each
// one completes. The callback runs on the worker goroutine and must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	docs []*model.Document,
	callback func(doc *model.Document, index int),
) error {
	bp.logger.Debug("starting batch processing",
		"total_documents", len(docs),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err := bp.pipelineFactory().Execute(ctx, doc); err != nil {
				bp.logger.Warn("conversion failed",
					"path", doc.DisplayPath(),
					"error", err,
				)
			}
			callback(doc, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Debug("batch processing complete",
		"total_documents", len(docs),
		"elapsed", time.Since(start),
	)
	return err
}
