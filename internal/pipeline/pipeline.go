package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/mdtidy/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the document as left by
// the previous steps.
type Step interface {
	// Do executes the pipeline step.
	// It returns an error if the step fails critically; non-critical
	// problems (a cache miss, say) are logged and Do returns nil.
	Do(ctx context.Context, doc *model.Document) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to keep going after a step
// fails. The error is still recorded on the document.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// Cancellation is checked before each step; a step in progress is not
// interrupted.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete (errors are recorded on the document).
func (p *Pipeline) Execute(ctx context.Context, doc *model.Document) error {
	start := time.Now()
	defer func() {
		doc.Duration = time.Since(start)
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"path", doc.DisplayPath(),
				"reason", ctx.Err(),
			)
			doc.SetError(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"path", doc.DisplayPath(),
		)

		if err := step.Do(ctx, doc); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"path", doc.DisplayPath(),
				"error", err,
			)
			doc.SetError(err)
			if !p.continueOnError {
				return err
			}
		}

		doc.Steps = append(doc.Steps, step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
