package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/nao1215/mdtidy/internal/cache"
	"github.com/nao1215/mdtidy/internal/convert"
	"github.com/nao1215/mdtidy/internal/model"
)

// ReadStep loads the raw document from its file, or from a reader when the
// document has no path.
type ReadStep struct {
	stdin io.Reader
}

// NewReadStep creates a ReadStep. stdin is used for documents without a
// path and may be nil when every document is a file.
func NewReadStep(stdin io.Reader) *ReadStep {
	return &ReadStep{stdin: stdin}
}

// Name returns the step name.
func (s *ReadStep) Name() string {
	return "read"
}

// Do reads the document input.
func (s *ReadStep) Do(_ context.Context, doc *model.Document) error {
	if doc.IsStdin() {
		if s.stdin == nil {
			return ErrNoInput
		}
		data, err := io.ReadAll(s.stdin)
		if err != nil {
			return fmt.Errorf("reading standard input: %w", err)
		}
		doc.Input = string(data)
		return nil
	}

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", doc.Path, err)
	}
	doc.Input = string(data)
	return nil
}

// Store is the part of the conversion cache the pipeline needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, output string) error
}

// CacheLookupStep fills in the output from the cache when the same input
// was converted before with the same options. Cache errors are logged and
// treated as a miss.
type CacheLookupStep struct {
	store  Store
	logger *slog.Logger
}

// NewCacheLookupStep creates a CacheLookupStep.
func NewCacheLookupStep(store Store, logger *slog.Logger) *CacheLookupStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheLookupStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *CacheLookupStep) Name() string {
	return "cache_lookup"
}

// Do looks up the document.
func (s *CacheLookupStep) Do(ctx context.Context, doc *model.Document) error {
	out, ok, err := s.store.Get(ctx, cache.Key(doc.Options, doc.Input))
	if err != nil {
		s.logger.Warn("cache lookup failed", "path", doc.DisplayPath(), "error", err)
		return nil
	}
	if ok {
		doc.SetOutput(out)
		doc.Cached = true
		s.logger.Debug("cache hit", "path", doc.DisplayPath())
	}
	return nil
}

// ConvertStep normalizes the document. It does nothing when a previous
// step already produced the output from the cache.
type ConvertStep struct {
	logger *slog.Logger
}

// NewConvertStep creates a ConvertStep. The logger receives the converter's
// debug records.
func NewConvertStep(logger *slog.Logger) *ConvertStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertStep{logger: logger}
}

// Name returns the step name.
func (s *ConvertStep) Name() string {
	return "convert"
}

// Do converts the document.
func (s *ConvertStep) Do(_ context.Context, doc *model.Document) error {
	if doc.Cached {
		return nil
	}
	c := convert.New(doc.Options, convert.WithLogger(s.logger.With("path", doc.DisplayPath())))
	out, err := c.Convert(doc.Input)
	if err != nil {
		return fmt.Errorf("converting %s: %w", doc.DisplayPath(), err)
	}
	doc.SetOutput(out)
	return nil
}

// CacheStoreStep saves a freshly converted document in the cache.
type CacheStoreStep struct {
	store  Store
	logger *slog.Logger
}

// NewCacheStoreStep creates a CacheStoreStep.
func NewCacheStoreStep(store Store, logger *slog.Logger) *CacheStoreStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheStoreStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *CacheStoreStep) Name() string {
	return "cache_store"
}

// Do stores the output. Cache errors are logged, not returned.
func (s *CacheStoreStep) Do(ctx context.Context, doc *model.Document) error {
	if doc.Cached {
		return nil
	}
	if err := s.store.Put(ctx, cache.Key(doc.Options, doc.Input), doc.Output); err != nil {
		s.logger.Warn("cache store failed", "path", doc.DisplayPath(), "error", err)
	}
	return nil
}

// WriteStep rewrites the file in place when its content changed. The file
// mode is kept.
type WriteStep struct{}

// NewWriteStep creates a WriteStep.
func NewWriteStep() *WriteStep {
	return &WriteStep{}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do writes the document.
func (s *WriteStep) Do(_ context.Context, doc *model.Document) error {
	if doc.IsStdin() {
		return ErrWriteStdin
	}
	if !doc.Changed {
		return nil
	}

	info, err := os.Stat(doc.Path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", doc.Path, err)
	}
	if err := os.WriteFile(doc.Path, []byte(doc.Output), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", doc.Path, err)
	}
	doc.Written = true
	return nil
}

// EmitStep writes the output to a writer. Writes from concurrent pipelines
// are serialized, one document at a time.
type EmitStep struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEmitStep creates an EmitStep writing to w.
func NewEmitStep(w io.Writer) *EmitStep {
	return &EmitStep{w: w}
}

// Name returns the step name.
func (s *EmitStep) Name() string {
	return "emit"
}

// Do writes the document output.
func (s *EmitStep) Do(_ context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, doc.Output); err != nil {
		return fmt.Errorf("emitting %s: %w", doc.DisplayPath(), err)
	}
	return nil
}

// FormatPipelineConfig selects the steps of DefaultPipeline.
type FormatPipelineConfig struct {
	// Stdin is the reader for documents without a path.
	Stdin io.Reader

	// Store enables the cache steps when non-nil.
	Store Store

	// Write adds WriteStep.
	Write bool

	// Emit is added last when non-nil. One EmitStep may be shared by all
	// pipelines of a batch.
	Emit *EmitStep

	// Logger is passed to the steps and the pipeline.
	Logger *slog.Logger
}

// DefaultPipeline assembles read, optional cache lookup, convert, optional
// cache store, then write and/or emit.
func DefaultPipeline(cfg FormatPipelineConfig, pipelineOpts ...Option) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(append([]Option{WithLogger(logger)}, pipelineOpts...)...)
	p.AddStep(NewReadStep(cfg.Stdin))
	if cfg.Store != nil {
		p.AddStep(NewCacheLookupStep(cfg.Store, logger))
	}
	p.AddStep(NewConvertStep(logger))
	if cfg.Store != nil {
		p.AddStep(NewCacheStoreStep(cfg.Store, logger))
	}
	if cfg.Write {
		p.AddStep(NewWriteStep())
	}
	if cfg.Emit != nil {
		p.AddStep(cfg.Emit)
	}
	return p
}

