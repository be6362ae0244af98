// Package batch runs the load over a tree of documents with a bounded
// worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/cadastre/internal/discovery"
	"github.com/stwalsh4118/cadastre/internal/extractor"
	"github.com/stwalsh4118/cadastre/internal/logger"
	"github.com/stwalsh4118/cadastre/internal/metrics"
	"github.com/stwalsh4118/cadastre/internal/repository"
	"github.com/stwalsh4118/cadastre/internal/services"
)

// DefaultWorkers is the pool size used when Options.Workers is not set.
const DefaultWorkers = 10

// ErrFilesFailed is returned by Run when at least one document failed.
var ErrFilesFailed = errors.New("one or more files failed")

// Options configures a Runner.
type Options struct {
	Workers   int
	Limit     int // successful files to process; 0 means no limit
	Extension string
	Metrics   *metrics.Metrics
	Out       io.Writer
}

// Outcome is the result of one unit of work.
type Outcome struct {
	File     string
	Result   services.LoadResult
	Err      error
	Duration time.Duration
}

// OK reports whether the unit succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Runner processes groups of documents. Each document is extracted and
// loaded on its own session and transaction.
type Runner struct {
	store   repository.IngestStore
	loader  *services.Loader
	log     *logger.Logger
	stats   *Stats
	opts    Options
	printMu sync.Mutex
}

// NewRunner creates a Runner.
func NewRunner(store repository.IngestStore, loader *services.Loader, log *logger.Logger, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.Extension == "" {
		opts.Extension = ".xml"
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Runner{
		store:  store,
		loader: loader,
		log:    log,
		stats:  NewStats(opts.Metrics),
		opts:   opts,
	}
}

// Stats returns the counters of the run.
func (r *Runner) Stats() *Stats {
	return r.stats
}

// Run processes groups one at a time and joins every worker of a group
// before moving to the next. It returns ErrFilesFailed when any unit
// failed; the summary is complete either way.
func (r *Runner) Run(ctx context.Context, groups []discovery.Group) (Summary, error) {
	runLog := r.log.With(map[string]interface{}{"run_id": uuid.NewString()})
	runLog.Info("Load run started", map[string]interface{}{
		"groups":  len(groups),
		"workers": r.opts.Workers,
		"limit":   r.opts.Limit,
	})

	r.printf("Using %d workers\n", r.opts.Workers)

	succeeded := 0
	for i, g := range groups {
		if ctx.Err() != nil {
			break
		}

		r.printf("[%d/%d] Processing directory: %s/%s\n", i+1, len(groups), g.Name, filepath.Base(g.Dir))
		files, err := discovery.CollectFiles(g.Dir, r.opts.Extension)
		if err != nil {
			runLog.Error("Failed to list group files", err, map[string]interface{}{"group": g.Name})
			continue
		}
		r.printf("  Found %d files\n", len(files))
		if len(files) == 0 {
			continue
		}

		if r.opts.Limit > 0 {
			remaining := r.opts.Limit - succeeded
			if remaining <= 0 {
				r.printf("Limit of %d files reached, stopping\n", r.opts.Limit)
				break
			}
			if len(files) > remaining {
				files = files[:remaining]
				r.printf("  Limit: processing only %d files from this directory\n", remaining)
			}
		}

		succeeded += r.runGroup(ctx, runLog, files)
		r.printf("  Completed: %s\n", g.Name)
	}

	r.opts.Metrics.RunFinished(time.Now())

	summary := r.stats.Snapshot()
	runLog.Info("Load run finished", map[string]interface{}{
		"files_processed": summary.FilesProcessed,
		"files_failed":    summary.FilesFailed,
	})
	if summary.FilesFailed > 0 {
		return summary, fmt.Errorf("%w: %d of %d", ErrFilesFailed,
			summary.FilesFailed, summary.FilesFailed+summary.FilesProcessed)
	}
	return summary, nil
}

// runGroup feeds files through a buffered channel to a fixed pool of
// workers and returns the number of successful units.
func (r *Runner) runGroup(ctx context.Context, log *logger.Logger, files []string) int {
	jobs := make(chan string, len(files))
	results := make(chan Outcome, len(files))

	var wg sync.WaitGroup
	for w := 0; w < min(r.opts.Workers, len(files)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- r.processFile(ctx, log, path)
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed, succeeded := 0, 0
	for o := range results {
		completed++
		status := "OK"
		if o.OK() {
			succeeded++
		} else {
			status = "FAILED"
		}
		r.printf("  [%d/%d] %s... %s\n", completed, len(files), filepath.Base(o.File), status)
	}
	return succeeded
}

// processFile is one unit of work. It never panics and always records its
// outcome in the stats.
func (r *Runner) processFile(ctx context.Context, log *logger.Logger, path string) (out Outcome) {
	start := time.Now()
	out.File = path
	fileLog := log.WithFile(path)

	defer func() {
		if rec := recover(); rec != nil {
			out.Err = fmt.Errorf("panic: %v", rec)
		}
		out.Duration = time.Since(start)
		if out.Err != nil {
			fileLog.Error("Failed to process file", out.Err, nil)
			r.stats.RecordFailure(out.Duration)
			return
		}
		r.stats.RecordSuccess(out.Result, out.Duration)
	}()

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	records, err := extractor.ExtractFile(path)
	if err != nil {
		out.Err = err
		return out
	}

	session, err := r.store.Open(ctx)
	if err != nil {
		out.Err = err
		return out
	}
	defer session.Close()

	out.Result, out.Err = r.loader.Load(ctx, session, records)
	if out.Err == nil && len(out.Result.Failed) > 0 {
		failed := make([]string, len(out.Result.Failed))
		for i, k := range out.Result.Failed {
			failed[i] = string(k)
		}
		fileLog.Warn("Some record kinds were skipped", map[string]interface{}{
			"kinds": strings.Join(failed, ","),
		})
	}
	return out
}

func (r *Runner) printf(format string, args ...interface{}) {
	r.printMu.Lock()
	defer r.printMu.Unlock()
	fmt.Fprintf(r.opts.Out, format, args...)
}
