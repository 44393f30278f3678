// Package worker provides an asynchronous worker pool that records the
// outcome of relayed requests: metrics and a completion log line.
//
// The pool decouples accounting from the relay's HTTP hot path so that the
// client-relay-upstream interaction is never slowed down by it.
package worker

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/azrelay/pkg/llm"
	"github.com/papercomputeco/azrelay/pkg/logger"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 256
)

// Job is the outcome of one relayed request.
type Job struct {
	RequestID  string
	Operation  string
	Model      string
	Deployment string

	// Status is the HTTP status sent to the client.
	Status int

	Streaming bool
	Duration  time.Duration

	// Frames is the number of whole frames relayed on a streamed response.
	Frames int

	// Usage is the token usage reported by upstream, if any.
	Usage *llm.Usage

	// Err is set when the relay ended abnormally, e.g. the client went away
	// mid-stream.
	Err error
}

// Recorder consumes completed jobs, e.g. to update metrics.
type Recorder interface {
	Record(job Job)
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Recorder receives every processed job. Optional.
	Recorder Recorder

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool processes accounting jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is
// closed, resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Debug("job not queued, pool closed",
			"request_id", job.RequestID,
		)
		return false
	}

	select {
	case p.queue <- job:
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"request_id", job.RequestID,
			"operation", job.Operation,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the relay HTTP server has stopped.
// Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob records a job and logs its completion.
func (p *Pool) processJob(job Job) {
	if p.config.Recorder != nil {
		p.config.Recorder.Record(job)
	}

	attrs := []any{
		"request_id", job.RequestID,
		"operation", job.Operation,
		"model", job.Model,
		"deployment", job.Deployment,
		"status", job.Status,
		"streaming", job.Streaming,
		"duration", job.Duration,
	}
	if job.Streaming {
		attrs = append(attrs, "frames", job.Frames)
	}
	if job.Usage != nil {
		attrs = append(attrs,
			"prompt_tokens", job.Usage.PromptTokens,
			"completion_tokens", job.Usage.CompletionTokens,
		)
	}

	if job.Err != nil {
		p.logger.Warn("relay ended with error", append(attrs, "error", job.Err)...)
		return
	}

	p.logger.Info("relay complete", attrs...)
}
