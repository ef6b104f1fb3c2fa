// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a function run on a fixed interval. Timeout, when set, bounds
// each run.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Status is the outcome of a job's most recent run.
type Status struct {
	Name     string        `json:"name"`
	LastRun  time.Time     `json:"lastRun"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
	Running  bool          `json:"running"`
}

// Runner runs registered jobs in their own goroutines until stopped.
type Runner struct {
	logger *zap.Logger
	jobs   []Job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	status map[string]*Status
}

func New(logger *zap.Logger) *Runner {
	return &Runner{logger: logger, status: make(map[string]*Status)}
}

// Register adds a job. Jobs registered after Start are not scheduled.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
	r.mu.Lock()
	r.status[job.Name] = &Status{Name: job.Name}
	r.mu.Unlock()
}

// Start runs every job once immediately and then on its interval.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
	r.logger.Info("background task runner started", zap.Int("job_count", len(r.jobs)))
}

// Stop cancels all jobs and waits for them until ctx is done.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped gracefully")
		return nil
	case <-ctx.Done():
		var running []string
		for _, s := range r.Snapshot() {
			if s.Running {
				running = append(running, s.Name)
			}
		}
		r.logger.Warn("background task runner shutdown timed out", zap.Strings("jobs_still_running", running))
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	r.execute(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job) {
	r.setRunning(job.Name, true)
	start := time.Now()

	err := r.call(ctx, job)

	elapsed := time.Since(start)
	r.record(job.Name, start, elapsed, err)

	switch {
	case err == nil:
		r.logger.Debug("job completed", zap.String("job", job.Name), zap.Duration("duration", elapsed))
	case ctx.Err() != nil:
		r.logger.Debug("job cancelled during shutdown", zap.String("job", job.Name))
	default:
		r.logger.Error("job failed", zap.String("job", job.Name), zap.Duration("duration", elapsed), zap.Error(err))
	}
}

// call runs one iteration, converting a panic into an error.
func (r *Runner) call(ctx context.Context, job Job) (err error) {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
	}()
	return job.Run(ctx)
}

func (r *Runner) setRunning(name string, running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.status[name]; ok {
		s.Running = running
	}
}

func (r *Runner) record(name string, at time.Time, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.status[name]
	if !ok {
		return
	}
	s.Running = false
	s.LastRun = at
	s.Duration = d
	s.Err = ""
	if err != nil {
		s.Err = err.Error()
	}
}

// Snapshot returns the status of every registered job in registration order.
func (r *Runner) Snapshot() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, 0, len(r.jobs))
	for _, j := range r.jobs {
		if s, ok := r.status[j.Name]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// RunOnce executes the named job synchronously and records its status.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			start := time.Now()
			err := r.call(ctx, job)
			r.record(name, start, time.Since(start), err)
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}
