package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/tmreport/internal/input"
	"github.com/nao1215/tmreport/internal/model"
	"github.com/nao1215/tmreport/internal/report"
)

// DefaultConcurrency is the number of files rendered at once by default.
const DefaultConcurrency = 4

// Result is the outcome of rendering one input file.
type Result struct {
	// Path is the input file.
	Path string

	// Report is the loaded threat model. Nil when loading failed.
	Report *model.ThreatModelReport

	// Output is the rendered document. Empty when Err is set.
	Output string

	// Err is the load or render error for this file.
	Err error
}

// Failed reports whether this file could not be rendered.
func (r Result) Failed() bool {
	return r.Err != nil
}

// RendererFactory returns the renderer for one input file.
type RendererFactory func(path string) (report.Renderer, error)

// LoadFunc reads a threat model from a path.
type LoadFunc func(path string) (*model.ThreatModelReport, error)

// Renderer renders input files with a concurrency limit.
//
// Design decision: Renderers from the report package are stateless, but we
// still take a factory keyed by path so callers can give every file its own
// format and options (from the project file) without changing this package.
type Renderer struct {
	rendererFactory RendererFactory
	load            LoadFunc
	concurrency     int
	logger          *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithConcurrency sets the maximum number of files rendered at once.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger for batch progress.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithLoader replaces input.Load as the file reader.
func WithLoader(load LoadFunc) Option {
	return func(r *Renderer) {
		if load != nil {
			r.load = load
		}
	}
}

// New creates a batch Renderer.
func New(rendererFactory RendererFactory, opts ...Option) *Renderer {
	r := &Renderer{
		rendererFactory: rendererFactory,
		load:            input.Load,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Render loads and renders every path.
//
// Results are returned in the order of paths regardless of completion
// order. Per-file failures are recorded on the Result. The returned error is
// non-nil only when ctx is cancelled; files not started by then carry the
// context error.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it bounds the number of goroutines running at once with less
// code, and each goroutine writes only its own slot of the result slice.
func (r *Renderer) Render(ctx context.Context, paths []string) ([]Result, error) {
	r.logger.Debug("starting batch render",
		"total_files", len(paths),
		"concurrency", r.concurrency,
	)
	startTime := time.Now()

	results := make([]Result, len(paths))
	for i, path := range paths {
		i, path := i, path
		results[i] = Result{Path: path}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i].Err = gctx.Err()
				return gctx.Err()
			default:
			}

			results[i] = r.renderFile(path)
			if results[i].Err != nil {
				r.logger.Warn("render failed", "file", path, "error", results[i].Err)
				// Other files continue; the error lives on the result.
				return nil
			}
			r.logger.Debug("render completed", "file", path, "bytes", len(results[i].Output))
			return nil
		})
	}

	err := g.Wait()

	// Goroutines never scheduled after cancellation leave their slot empty.
	if err != nil {
		for i := range results {
			if results[i].Err == nil && results[i].Output == "" {
				results[i].Err = err
			}
		}
	}

	r.logger.Debug("batch render complete",
		"total_files", len(paths),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

func (r *Renderer) renderFile(path string) Result {
	res := Result{Path: path}

	tm, err := r.load(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Report = tm

	renderer, err := r.rendererFactory(path)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}

	out, err := renderer.Render(tm)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}
	res.Output = out
	return res
}

// Failures returns the failed results, in input order.
func Failures(results []Result) []Result {
	var failed []Result
	for _, res := range results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}
