package crontab

import (
	"bytes"
	"context"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/aatumaykin/cronsync/internal/logger"
)

// Table is the current user's crontab, read and replaced as a whole.
type Table interface {
	Read(ctx context.Context) ([]string, error)
	Write(ctx context.Context, lines []string) error
}

// SystemTable talks to the crontab executable.
type SystemTable struct {
	executable string
	logger     *logger.Logger
}

// NewSystemTable creates a table backed by the given crontab executable.
func NewSystemTable(executable string, log *logger.Logger) *SystemTable {
	return &SystemTable{
		executable: executable,
		logger:     log,
	}
}

// Read runs "crontab -l". A user without a crontab has an empty table.
func (t *SystemTable) Read(ctx context.Context) ([]string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.executable, "-l")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if isExitError(err) && isNoCrontab(stderr.String()) {
			t.logger.Debug("no crontab for current user",
				logger.Field{Key: "executable", Value: t.executable})
			return nil, nil
		}
		return nil, t.commandError("read", err, stderr.String())
	}

	lines := splitLines(stdout.String())
	t.logger.Debug("crontab read",
		logger.Field{Key: "executable", Value: t.executable},
		logger.Field{Key: "lines", Value: len(lines)})
	return lines, nil
}

// Write replaces the whole table by piping it to "crontab -".
func (t *SystemTable) Write(ctx context.Context, lines []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.executable, "-")
	cmd.Stdin = strings.NewReader(joinLines(lines))
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return t.commandError("write", err, stderr.String())
	}

	t.logger.Debug("crontab written",
		logger.Field{Key: "executable", Value: t.executable},
		logger.Field{Key: "lines", Value: len(lines)})
	return nil
}

func (t *SystemTable) commandError(op string, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if !isExitError(err) {
		wrapped := errors.Wrapf(err, "cannot %s crontab with %s", op, t.executable)
		wrapped = errors.WithHint(wrapped, "set crontab.executable to the path of the crontab binary")
		return errors.Mark(wrapped, ErrConfiguration)
	}
	if stderr == "" {
		return errors.Mark(errors.Wrapf(err, "%s %s crontab", t.executable, op), ErrPermission)
	}
	return errors.Mark(errors.Wrapf(err, "%s", stderr), ErrPermission)
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func isNoCrontab(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "no crontab for")
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// MemoryTable is an in-memory Table for tests and previews.
type MemoryTable struct {
	mu     sync.Mutex
	lines  []string
	writes int

	// ReadErr and WriteErr, when set, are returned instead of touching lines.
	ReadErr  error
	WriteErr error
}

// NewMemoryTable returns a table holding a copy of lines.
func NewMemoryTable(lines ...string) *MemoryTable {
	return &MemoryTable{lines: slices.Clone(lines)}
}

// Read returns a copy of the current lines.
func (t *MemoryTable) Read(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ReadErr != nil {
		return nil, t.ReadErr
	}
	return slices.Clone(t.lines), nil
}

// Write replaces the current lines.
func (t *MemoryTable) Write(ctx context.Context, lines []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.WriteErr != nil {
		return t.WriteErr
	}
	t.lines = slices.Clone(lines)
	t.writes++
	return nil
}

// Lines returns a copy of the current lines.
func (t *MemoryTable) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.lines)
}

// Writes returns how many times the table was written.
func (t *MemoryTable) Writes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writes
}
