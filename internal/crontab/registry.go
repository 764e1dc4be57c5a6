package crontab

import (
	"bytes"
	"iter"
	"sync"
)

// Registry holds the jobs declared by an application. It is built once at
// startup and sealed before it is handed to a Reconciler or a Runner.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	order  []string
	sealed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
	}
}

// Declare builds a job from fn and opts, registers it and returns fn
// unchanged so declarations can wrap package-level function variables.
func (r *Registry) Declare(fn Func, opts ...JobOption) (Func, error) {
	job, err := NewJob(fn, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := r.Register(job); err != nil {
		return nil, err
	}
	return fn, nil
}

// MustDeclare is like Declare but panics on error.
// Intended for package-level declaration lists.
func (r *Registry) MustDeclare(fn Func, opts ...JobOption) Func {
	fn, err := r.Declare(fn, opts...)
	if err != nil {
		panic(err)
	}
	return fn
}

// Register adds job and returns its identifier. Two declarations mapping to
// the same identifier are rejected, whether they collide or are duplicates.
func (r *Registry) Register(job *Job) (string, error) {
	if job == nil {
		return "", configurationErrorf("cannot register nil job")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return "", configurationErrorf("cannot register job %s: registry is sealed", job.Name())
	}

	if existing, ok := r.jobs[job.id]; ok {
		if bytes.Equal(existing.canonical, job.canonical) {
			return "", configurationErrorf("job %s (%s) is declared twice", job.Name(), job.Schedule())
		}
		return "", configurationErrorf("job identifier %s collides: %s and %s", job.id, existing.Name(), job.Name())
	}

	r.jobs[job.id] = job
	r.order = append(r.order, job.id)
	return job.id, nil
}

// Lookup returns the job registered under id.
func (r *Registry) Lookup(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	return job, ok
}

// All iterates over jobs in registration order. The sequence can be
// ranged over any number of times.
func (r *Registry) All() iter.Seq2[string, *Job] {
	return func(yield func(string, *Job) bool) {
		r.mu.RLock()
		ids := make([]string, len(r.order))
		copy(ids, r.order)
		r.mu.RUnlock()

		for _, id := range ids {
			job, ok := r.Lookup(id)
			if !ok {
				continue
			}
			if !yield(id, job) {
				return
			}
		}
	}
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Seal makes the registry read-only. Calling it more than once is fine.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}
