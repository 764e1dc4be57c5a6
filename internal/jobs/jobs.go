// Package jobs holds the built-in job functions an operator can schedule
// from the [[jobs]] section of the configuration file.
package jobs

import (
	"maps"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/aatumaykin/cronsync/internal/config"
	"github.com/aatumaykin/cronsync/internal/crontab"
)

var builtins = map[string]crontab.Func{
	"prune_files": PruneFiles,
	"touch_file":  TouchFile,
	"log_message": LogMessage,
}

// Builtin returns the built-in function registered under name.
func Builtin(name string) (crontab.Func, bool) {
	fn, ok := builtins[name]
	return fn, ok
}

// Names returns the sorted names of all built-in functions.
func Names() []string {
	return slices.Sorted(maps.Keys(builtins))
}

// DeclareAll declares one job per configuration entry in reg.
func DeclareAll(reg *crontab.Registry, decls []config.JobConfig) error {
	for i, d := range decls {
		fn, ok := Builtin(d.Func)
		if !ok {
			err := errors.Newf("jobs[%d]: unknown func %q", i, d.Func)
			err = errors.WithHintf(err, "available functions: %s", strings.Join(Names(), ", "))
			return errors.Mark(err, crontab.ErrConfiguration)
		}

		opts := []crontab.JobOption{
			crontab.WithSchedule(crontab.Schedule{
				Minute:     d.Minute,
				Hour:       d.Hour,
				DayOfMonth: d.DayOfMonth,
				Month:      d.Month,
				DayOfWeek:  d.DayOfWeek,
			}),
			crontab.WithArgs(d.Args...),
			crontab.WithKwargs(d.Kwargs),
		}
		if d.Name != "" {
			opts = append(opts, crontab.WithName(d.Name))
		}

		if _, err := reg.Declare(fn, opts...); err != nil {
			return errors.Wrapf(err, "jobs[%d]", i)
		}
	}
	return nil
}
