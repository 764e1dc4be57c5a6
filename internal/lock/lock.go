// Package lock provides exclusive, non-blocking file locks that are released
// automatically when the holding process exits.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aatumaykin/cronsync/internal/constants"
)

// ErrLocked is returned by Acquire when another holder has the lock.
var ErrLocked = errors.New("lock is held by another process")

// Lock is a held file lock.
type Lock struct {
	file *os.File
	path string
}

// Path возвращает путь к lock-файлу для name в dir
func Path(dir, name string) string {
	return filepath.Join(dir, fmt.Sprintf(constants.LockFileFormat, name))
}

// Acquire takes the lock for name in dir without blocking and records the
// holder PID in the lock file.
func Acquire(dir, name string) (*Lock, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid lock name %q", name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", dir, err)
	}

	path := Path(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := tryLock(file); err != nil {
		file.Close()
		if errors.Is(err, ErrLocked) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	// Записать PID владельца
	if err := file.Truncate(0); err == nil {
		_, _ = file.WriteAt([]byte(fmt.Sprintf("%d\n", os.Getpid())), 0)
	}

	return &Lock{file: file, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks and closes the lock file. The file itself stays in place so
// a concurrent Acquire never locks an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, unlockErr)
	}
	return closeErr
}

// ReadPID читает PID владельца блокировки
func ReadPID(dir, name string) (int, error) {
	data, err := os.ReadFile(Path(dir, name))
	if err != nil {
		return 0, err
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, err
	}

	return pid, nil
}
