package crontab

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/aatumaykin/cronsync/internal/lock"
	"github.com/aatumaykin/cronsync/internal/logger"
)

// RunStatus is the outcome of a job run.
type RunStatus string

const (
	RunSucceeded RunStatus = "success"
	RunFailed    RunStatus = "failure"
)

// RunResult describes a finished run.
type RunResult struct {
	ID       string
	Name     string
	RunID    string
	Status   RunStatus
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Recorder receives the result of every run that invoked its job.
type Recorder interface {
	Record(result RunResult) error
}

// ContextProvider sets up the application context a job runs in.
// The returned teardown is called on every exit path.
type ContextProvider interface {
	Enter(ctx context.Context, job *Job) (context.Context, func(), error)
}

// ContextProviderFunc adapts a function to ContextProvider.
type ContextProviderFunc func(ctx context.Context, job *Job) (context.Context, func(), error)

func (f ContextProviderFunc) Enter(ctx context.Context, job *Job) (context.Context, func(), error) {
	return f(ctx, job)
}

// Runner executes a single registered job by identifier.
type Runner struct {
	registry *Registry
	logger   *logger.Logger
	provider ContextProvider
	recorder Recorder
	lockJobs bool
	lockDir  string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLocking makes Run hold an exclusive per-job lock in dir while the job
// runs, failing fast when the lock is taken.
func WithLocking(dir string) RunnerOption {
	return func(r *Runner) {
		r.lockJobs = true
		r.lockDir = dir
	}
}

// WithContextProvider sets the provider wrapped around every job body.
func WithContextProvider(p ContextProvider) RunnerOption {
	return func(r *Runner) { r.provider = p }
}

// WithRecorder sets where run results are reported.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// NewRunner seals registry and returns a runner for it.
func NewRunner(registry *Registry, log *logger.Logger, opts ...RunnerOption) *Runner {
	registry.Seal()
	r := &Runner{
		registry: registry,
		logger:   log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run looks up id and invokes the job with its fixed arguments. Errors from
// the job body are returned marked with ErrJobExecution.
func (r *Runner) Run(ctx context.Context, id string) error {
	job, ok := r.registry.Lookup(id)
	if !ok {
		return NotFoundError(id)
	}

	runID := uuid.NewString()
	log := r.logger.With(
		logger.Field{Key: "job_id", Value: id},
		logger.Field{Key: "job_name", Value: job.Name()},
		logger.Field{Key: "run_id", Value: runID})

	if r.lockJobs {
		held, err := lock.Acquire(r.lockDir, id)
		if err != nil {
			if errors.Is(err, lock.ErrLocked) {
				log.Warn("tried to start job that is already running")
				return r.alreadyRunning(id)
			}
			return errors.Mark(errors.Wrapf(err, "cannot lock job %s", id), ErrConfiguration)
		}
		defer func() {
			if err := held.Release(); err != nil {
				log.Error("failed to release job lock", err,
					logger.Field{Key: "lock", Value: held.Path()})
			}
		}()
	}

	log.Info("job started")
	started := time.Now()
	err := r.invoke(ctx, job)
	result := RunResult{
		ID:       id,
		Name:     job.Name(),
		RunID:    runID,
		Status:   RunSucceeded,
		Started:  started,
		Duration: time.Since(started),
		Err:      err,
	}

	if err != nil {
		result.Status = RunFailed
		log.Error("job failed", err,
			logger.Field{Key: "duration", Value: result.Duration.String()})
	} else {
		log.Info("job finished",
			logger.Field{Key: "duration", Value: result.Duration.String()})
	}

	if r.recorder != nil {
		if recErr := r.recorder.Record(result); recErr != nil {
			log.Warn("failed to record job run",
				logger.Field{Key: "error", Value: recErr.Error()})
		}
	}

	return err
}

func (r *Runner) invoke(ctx context.Context, job *Job) (err error) {
	if r.provider != nil {
		scoped, teardown, perr := r.provider.Enter(ctx, job)
		if perr != nil {
			return errors.Mark(errors.Wrapf(perr, "cannot set up context for job %s", job.Name()), ErrConfiguration)
		}
		if teardown != nil {
			defer teardown()
		}
		ctx = scoped
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Mark(errors.Newf("job %s panicked: %v", job.Name(), rec), ErrJobExecution)
		}
	}()

	if err := job.call(ctx); err != nil {
		return errors.Mark(errors.Wrapf(err, "job %s failed", job.Name()), ErrJobExecution)
	}
	return nil
}

func (r *Runner) alreadyRunning(id string) error {
	err := errors.Newf("job %s is already running", id)
	if pid, pidErr := lock.ReadPID(r.lockDir, id); pidErr == nil && pid > 0 {
		err = errors.WithDetailf(err, "lock held by pid %d", pid)
	}
	return errors.Mark(err, ErrAlreadyRunning)
}
