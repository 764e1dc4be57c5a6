// Package crontab keeps the jobs an application declares in sync with the
// current user's crontab and runs a single job when cron invokes it.
package crontab

import (
	"context"
	"maps"
	"reflect"
	"runtime"
	"slices"
	"strings"
)

// Func is the body of a scheduled job. Args and Kwargs are the fixed
// arguments the job was declared with.
type Func func(ctx context.Context, call Call) error

// Call carries the fixed arguments of a job invocation.
type Call struct {
	Args   []any
	Kwargs map[string]any
}

// Arg returns the positional argument at index i, or nil.
func (c Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Kwarg returns the keyword argument key and whether it was set.
func (c Call) Kwarg(key string) (any, bool) {
	v, ok := c.Kwargs[key]
	return v, ok
}

// Schedule is a five-field cron time specification.
// Empty fields mean "*".
type Schedule struct {
	Minute     string `json:"minute" yaml:"minute"`
	Hour       string `json:"hour" yaml:"hour"`
	DayOfMonth string `json:"day_of_month" yaml:"day_of_month"`
	Month      string `json:"month" yaml:"month"`
	DayOfWeek  string `json:"day_of_week" yaml:"day_of_week"`
}

// Fields returns the five fields in crontab order with defaults applied.
func (s Schedule) Fields() [5]string {
	fields := [5]string{s.Minute, s.Hour, s.DayOfMonth, s.Month, s.DayOfWeek}
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			f = "*"
		}
		fields[i] = f
	}
	return fields
}

// String returns the schedule as it appears in a crontab line.
func (s Schedule) String() string {
	f := s.Fields()
	return strings.Join(f[:], " ")
}

func (s Schedule) normalized() Schedule {
	f := s.Fields()
	return Schedule{Minute: f[0], Hour: f[1], DayOfMonth: f[2], Month: f[3], DayOfWeek: f[4]}
}

// Job is an immutable declaration of one scheduled function.
type Job struct {
	name     string
	schedule Schedule
	args     []any
	kwargs   map[string]any
	fn       Func

	id        string
	canonical []byte
}

// JobOption configures a job at declaration time.
type JobOption func(*jobParams)

type jobParams struct {
	name     string
	schedule Schedule
	args     []any
	kwargs   map[string]any
}

// WithName overrides the callable reference. Closures need it because
// their generated names change whenever the enclosing code changes.
func WithName(name string) JobOption {
	return func(s *jobParams) { s.name = name }
}

// WithSchedule sets all five schedule fields at once.
func WithSchedule(schedule Schedule) JobOption {
	return func(s *jobParams) { s.schedule = schedule }
}

// WithMinute sets the minute field.
func WithMinute(v string) JobOption {
	return func(s *jobParams) { s.schedule.Minute = v }
}

// WithHour sets the hour field.
func WithHour(v string) JobOption {
	return func(s *jobParams) { s.schedule.Hour = v }
}

// WithDayOfMonth sets the day-of-month field.
func WithDayOfMonth(v string) JobOption {
	return func(s *jobParams) { s.schedule.DayOfMonth = v }
}

// WithMonth sets the month field.
func WithMonth(v string) JobOption {
	return func(s *jobParams) { s.schedule.Month = v }
}

// WithDayOfWeek sets the day-of-week field.
func WithDayOfWeek(v string) JobOption {
	return func(s *jobParams) { s.schedule.DayOfWeek = v }
}

// WithArgs sets the positional arguments passed on every run.
func WithArgs(args ...any) JobOption {
	return func(s *jobParams) { s.args = args }
}

// WithKwargs sets the keyword arguments passed on every run.
func WithKwargs(kwargs map[string]any) JobOption {
	return func(s *jobParams) { s.kwargs = kwargs }
}

// NewJob builds and validates a job declaration.
func NewJob(fn Func, opts ...JobOption) (*Job, error) {
	if fn == nil {
		return nil, configurationErrorf("cannot declare a nil job function")
	}

	var p jobParams
	for _, opt := range opts {
		opt(&p)
	}

	if p.name == "" {
		p.name = funcName(fn)
	}
	if p.name == "" {
		return nil, configurationErrorf("cannot resolve a name for job function, use WithName")
	}

	schedule := p.schedule.normalized()
	if err := validateSchedule(schedule); err != nil {
		return nil, err
	}

	job := &Job{
		name:     p.name,
		schedule: schedule,
		args:     slices.Clone(p.args),
		kwargs:   maps.Clone(p.kwargs),
		fn:       fn,
	}
	if job.args == nil {
		job.args = []any{}
	}
	if job.kwargs == nil {
		job.kwargs = map[string]any{}
	}

	id, canonical, err := identify(job)
	if err != nil {
		return nil, err
	}
	job.id = id
	job.canonical = canonical

	return job, nil
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// Name returns the callable reference.
func (j *Job) Name() string { return j.name }

// Schedule returns the normalized schedule.
func (j *Job) Schedule() Schedule { return j.schedule }

// Args returns a copy of the positional arguments.
func (j *Job) Args() []any { return slices.Clone(j.args) }

// Kwargs returns a copy of the keyword arguments.
func (j *Job) Kwargs() map[string]any { return maps.Clone(j.kwargs) }

func (j *Job) call(ctx context.Context) error {
	return j.fn(ctx, Call{Args: j.Args(), Kwargs: j.Kwargs()})
}

// funcName returns "<import path>.<func>" for a named function, with the
// "-fm" suffix of method values stripped.
func funcName(fn Func) string {
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return ""
	}
	return strings.TrimSuffix(f.Name(), "-fm")
}
