// Package queue runs document jobs on a single owned worker goroutine. Jobs
// are added in pending state, enqueued explicitly, executed one at a time,
// and every state change is pushed to registered update callbacks. The
// reduction engine itself is synchronous; the queue is the worker context it
// is designed to run inside.
package queue

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/pdfreduce/extract"
	"github.com/wudi/pdfreduce/observability"
	"github.com/wudi/pdfreduce/reduce"
)

// UpdateFunc receives a snapshot of a job after every state change. It is
// called from the queue's goroutines and must not block.
type UpdateFunc func(Job)

// Runner executes one job's work, reporting progress through the callback.
// It exists as a seam; the default runner drives the reduction engine and
// the extractors.
type Runner func(job Job, progress reduce.ProgressFunc) error

// Queue is an in-process job queue with one worker.
type Queue struct {
	log    observability.Logger
	runner Runner

	mu        sync.Mutex
	jobs      map[string]*Job
	order     []string
	callbacks []UpdateFunc

	pending chan string
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// New creates a queue. Call Start to launch the worker.
func New(log observability.Logger) *Queue {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Queue{
		log:     log,
		runner:  defaultRunner,
		jobs:    make(map[string]*Job),
		pending: make(chan string, 256),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// SetRunner replaces the job runner. Must be called before Start.
func (q *Queue) SetRunner(r Runner) { q.runner = r }

// OnUpdate registers a callback invoked with a job snapshot on every change.
func (q *Queue) OnUpdate(fn UpdateFunc) {
	q.mu.Lock()
	q.callbacks = append(q.callbacks, fn)
	q.mu.Unlock()
}

// Start launches the worker goroutine. Starting twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()
	go q.worker()
}

// Stop terminates the worker after its current job and waits for it.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()
	close(q.stop)
	<-q.done
}

// Add registers a new pending job and returns its snapshot. The job is not
// enqueued until StartProcessing is called.
func (q *Queue) Add(spec Spec) Job {
	job := &Job{
		ID:         uuid.NewString(),
		Filename:   spec.Filename,
		Mode:       spec.Mode,
		InputPath:  spec.InputPath,
		OutputPath: spec.OutputPath,
		CSVDir:     spec.CSVDir,
		ExtractCSV: spec.ExtractCSV,
		Options:    spec.Options,
		Status:     StatusPending,
		Message:    "Waiting...",
		CreatedAt:  time.Now(),
	}
	if fi, err := os.Stat(spec.InputPath); err == nil {
		job.OriginalSize = fi.Size()
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.order = append(q.order, job.ID)
	snapshot := *job
	q.mu.Unlock()

	q.notify(snapshot)
	return snapshot
}

// StartProcessing enqueues every pending job and returns how many it queued.
func (q *Queue) StartProcessing() int {
	q.mu.Lock()
	var ids []string
	for _, id := range q.order {
		if job, ok := q.jobs[id]; ok && job.Status == StatusPending {
			ids = append(ids, id)
		}
	}
	q.mu.Unlock()

	for _, id := range ids {
		q.pending <- id
	}
	return len(ids)
}

// Job returns a snapshot of one job.
func (q *Queue) Job(id string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Jobs returns snapshots of all jobs in creation order.
func (q *Queue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, 0, len(q.order))
	for _, id := range q.order {
		if job, ok := q.jobs[id]; ok {
			out = append(out, *job)
		}
	}
	return out
}

// Remove deletes a job and its files. It reports whether the job existed.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return false
	}
	delete(q.jobs, id)
	for i, oid := range q.order {
		if oid == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	q.mu.Unlock()

	os.Remove(job.InputPath)
	os.Remove(job.OutputPath)
	if job.CSVDir != "" {
		os.RemoveAll(job.CSVDir)
	}
	return true
}

// ClearCompleted removes every completed or failed job and returns the count.
func (q *Queue) ClearCompleted() int {
	q.mu.Lock()
	var ids []string
	for _, id := range q.order {
		if job, ok := q.jobs[id]; ok && (job.Status == StatusCompleted || job.Status == StatusFailed) {
			ids = append(ids, id)
		}
	}
	q.mu.Unlock()

	for _, id := range ids {
		q.Remove(id)
	}
	return len(ids)
}

func (q *Queue) worker() {
	defer close(q.done)
	for {
		select {
		case <-q.stop:
			return
		case id := <-q.pending:
			q.run(id)
		}
	}
}

func (q *Queue) run(id string) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	job.Status = StatusProcessing
	job.Message = "Starting..."
	snapshot := *job
	q.mu.Unlock()
	q.notify(snapshot)

	progress := func(pct float64, msg string) {
		q.mu.Lock()
		job, ok := q.jobs[id]
		if !ok {
			q.mu.Unlock()
			return
		}
		job.Progress = pct
		job.Message = msg
		snapshot := *job
		q.mu.Unlock()
		q.notify(snapshot)
	}

	err := q.runner(snapshot, progress)

	now := time.Now()
	q.mu.Lock()
	job, ok = q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		job.Message = "Error: " + err.Error()
	} else {
		job.Status = StatusCompleted
		job.Progress = 100
		job.Message = "Complete!"
		job.CompletedAt = &now
		if fi, statErr := os.Stat(job.OutputPath); statErr == nil {
			job.ReducedSize = fi.Size()
		}
	}
	snapshot = *job
	q.mu.Unlock()
	q.notify(snapshot)

	if err != nil {
		q.log.Warn("job failed",
			observability.String("job", id),
			observability.String("filename", snapshot.Filename),
			observability.Error("error", err),
		)
	}
}

func (q *Queue) notify(job Job) {
	q.mu.Lock()
	callbacks := make([]UpdateFunc, len(q.callbacks))
	copy(callbacks, q.callbacks)
	q.mu.Unlock()
	for _, fn := range callbacks {
		fn(job)
	}
}

// defaultRunner executes reduce and extract jobs with the real engine.
func defaultRunner(job Job, progress reduce.ProgressFunc) error {
	if job.Mode == ModeExtract {
		return runExtract(job, progress)
	}
	reducer, err := reduce.New(job.Options, nil)
	if err != nil {
		return err
	}
	_, err = reducer.Reduce(job.InputPath, job.OutputPath, progress)
	return err
}

func runExtract(job Job, progress reduce.ProgressFunc) error {
	progress(10, "Extracting text...")
	text, err := extract.Text(job.InputPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(job.OutputPath, []byte(text), 0o644); err != nil {
		return err
	}
	if job.ExtractCSV && job.CSVDir != "" {
		progress(70, "Extracting tables...")
		tables, err := extract.Tables(job.InputPath)
		if err == nil && len(tables) > 0 {
			stem := strings.TrimSuffix(filepath.Base(job.Filename), filepath.Ext(job.Filename))
			if _, err := extract.WriteCSV(tables, job.CSVDir, stem); err != nil {
				return err
			}
		}
	}
	progress(100, "Complete!")
	return nil
}
