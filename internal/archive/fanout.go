package archive

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"file-forge/internal/logging"
	"file-forge/internal/memory"
	"file-forge/internal/metrics"
	"file-forge/internal/workers"
)

// ErrAllEntriesFailed is returned when a fan-out produced no outputs at all.
var ErrAllEntriesFailed = errors.New("every archive entry failed to process")

// Transform converts one extracted file into zero or more output files.
// Returning an empty slice with a nil error counts as a skip.
type Transform func(ctx context.Context, inputPath string) ([]string, error)

// FanoutConfig configures the fan-out worker pool.
type FanoutConfig struct {
	// Operation labels metrics and logs (e.g. "img-compress")
	Operation string
	// NumWorkers is the number of parallel workers (0 = auto based on CPU)
	NumWorkers int
	// Monitor supplies memory backpressure; nil disables it
	Monitor *memory.Monitor
}

// fanoutJob carries one extracted entry through the pool. The index keeps
// outputs in archive order regardless of completion order.
type fanoutJob struct {
	index int
	path  string
}

type fanoutResult struct {
	index   int
	outputs []string
	err     error
}

// FanoutResult summarizes a completed fan-out.
type FanoutResult struct {
	// Outputs holds the produced files in input order
	Outputs []string
	// Succeeded and Failed count entries, not output files
	Succeeded int
	Failed    int
}

// Fanout runs a Transform over a set of files with a bounded worker pool.
type Fanout struct {
	config    FanoutConfig
	transform Transform

	jobs    chan fanoutJob
	results chan fanoutResult

	wg sync.WaitGroup

	succeeded atomic.Int64
	failed    atomic.Int64
}

// NewFanout creates a fan-out pool for the given transform.
func NewFanout(config FanoutConfig, transform Transform) *Fanout {
	if config.NumWorkers <= 0 {
		config.NumWorkers = workers.ForMixed(8)
	}
	return &Fanout{
		config:    config,
		transform: transform,
		jobs:      make(chan fanoutJob, config.NumWorkers*2),
		results:   make(chan fanoutResult, config.NumWorkers*2),
	}
}

// Run processes every input through the transform. Entries that fail are
// logged, counted, and skipped; Run returns ErrAllEntriesFailed only when
// nothing succeeded. Cancelling ctx stops the pool early.
func (f *Fanout) Run(ctx context.Context, inputs []string) (FanoutResult, error) {
	logging.Info("Starting %s fan-out over %d entries with %d workers",
		f.config.Operation, len(inputs), f.config.NumWorkers)
	startTime := time.Now()

	for i := 0; i < f.config.NumWorkers; i++ {
		f.wg.Add(1)
		go f.worker(ctx, i)
	}

	// Collector keeps outputs in input order.
	ordered := make([][]string, len(inputs))
	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for result := range f.results {
			if result.err != nil {
				f.failed.Add(1)
				metrics.FanoutEntriesTotal.WithLabelValues(f.config.Operation, "error").Inc()
				logging.Warn("%s: entry failed: %v", f.config.Operation, result.err)
				continue
			}
			if len(result.outputs) == 0 {
				metrics.FanoutEntriesTotal.WithLabelValues(f.config.Operation, "skipped").Inc()
				continue
			}
			f.succeeded.Add(1)
			metrics.FanoutEntriesTotal.WithLabelValues(f.config.Operation, "success").Inc()
			ordered[result.index] = result.outputs
		}
	}()

	// Enqueue all inputs, bailing out if the client goes away.
enqueue:
	for i, input := range inputs {
		select {
		case f.jobs <- fanoutJob{index: i, path: input}:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(f.jobs)

	f.wg.Wait()
	close(f.results)
	collectorWg.Wait()

	duration := time.Since(startTime)
	metrics.FanoutDuration.WithLabelValues(f.config.Operation).Observe(duration.Seconds())

	result := FanoutResult{
		Succeeded: int(f.succeeded.Load()),
		Failed:    int(f.failed.Load()),
	}
	for _, outputs := range ordered {
		result.Outputs = append(result.Outputs, outputs...)
	}

	logging.Info("%s fan-out complete: %d succeeded, %d failed in %v",
		f.config.Operation, result.Succeeded, result.Failed, duration)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if len(inputs) > 0 && len(result.Outputs) == 0 {
		return result, ErrAllEntriesFailed
	}
	return result, nil
}

func (f *Fanout) worker(ctx context.Context, id int) {
	defer f.wg.Done()

	logging.Debug("%s worker %d started", f.config.Operation, id)

	for job := range f.jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if f.config.Monitor != nil && !f.config.Monitor.WaitIfPaused() {
			return
		}

		outputs, err := f.transform(ctx, job.path)

		select {
		case f.results <- fanoutResult{index: job.index, outputs: outputs, err: err}:
		case <-ctx.Done():
			return
		}
	}

	logging.Debug("%s worker %d finished", f.config.Operation, id)
}
