package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/aatumaykin/cronsync/internal/appctx"
	"github.com/aatumaykin/cronsync/internal/crontab"
	"github.com/aatumaykin/cronsync/internal/logger"
)

// PruneFiles deletes regular files directly inside kwargs["dir"] that
// match kwargs["pattern"] (default "*") and were last modified more than
// kwargs["max_age_hours"] (default 24) ago.
func PruneFiles(ctx context.Context, call crontab.Call) error {
	dir, err := stringKwarg(call, "dir", "")
	if err != nil {
		return err
	}
	if dir == "" {
		return fmt.Errorf("kwarg dir is required")
	}
	pattern, err := stringKwarg(call, "pattern", "*")
	if err != nil {
		return err
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	maxAge, err := hoursKwarg(call, "max_age_hours", 24*time.Hour)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	log := appctx.Logger(ctx)
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
	}

	log.Info("pruned files",
		logger.Field{Key: "dir", Value: dir},
		logger.Field{Key: "removed", Value: removed})
	return nil
}

// TouchFile creates args[0] or updates its modification time. Pointing a
// monitor at the file's age turns any schedule into a heartbeat.
func TouchFile(ctx context.Context, call crontab.Call) error {
	path, err := stringArg(call, 0, "path")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return fmt.Errorf("failed to touch %s: %w", path, err)
	}

	appctx.Logger(ctx).Debug("touched file", logger.Field{Key: "path", Value: path})
	return nil
}

// LogMessage writes its arguments to the job log. Handy for checking that
// cron actually runs the application.
func LogMessage(ctx context.Context, call crontab.Call) error {
	fields := []logger.Field{{Key: "args", Value: call.Args}}
	for _, key := range sortedKeys(call.Kwargs) {
		fields = append(fields, logger.Field{Key: key, Value: call.Kwargs[key]})
	}
	appctx.Logger(ctx).Info("log_message", fields...)
	return nil
}
