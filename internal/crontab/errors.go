package crontab

import (
	"github.com/cockroachdb/errors"
)

// Error kinds. Returned errors are marked with one of these, so callers
// classify them with errors.Is while the message stays specific.
var (
	// ErrConfiguration covers a missing or unusable scheduler executable,
	// malformed job declarations and colliding identifiers.
	ErrConfiguration = errors.New("configuration error")

	// ErrPermission is returned when the scheduler refuses to read or write
	// the table for the current user.
	ErrPermission = errors.New("permission error")

	// ErrNotFound is returned by Run for an identifier the registry does not know.
	ErrNotFound = errors.New("job not found")

	// ErrAlreadyRunning is returned by Run when lock_jobs is enabled and
	// another run of the same job holds the lock.
	ErrAlreadyRunning = errors.New("job already running")

	// ErrJobExecution wraps any error or panic raised by a job body.
	ErrJobExecution = errors.New("job execution failed")
)

func configurationErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}

// NotFoundError reports that no registered job has identifier id.
func NotFoundError(id string) error {
	err := errors.Newf("no job with identifier %s", id)
	err = errors.WithHint(err,
		`the crontab seems out of sync with the application, run "crontab add" again to resolve this`)
	return errors.Mark(err, ErrNotFound)
}
