// Package lock provides file-based locking so concurrent aliesce invocations
// cannot interleave rewrites of the same source file. Only the mutating
// operations (push, edit, the stdin pipe) take the lock; the save/run
// pipeline never writes the source.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"aliesce/pkg/colors"
)

const (
	lockTimeout      = 30 * time.Second // maximum time to wait for the lock
	lockPollInterval = time.Second      // how often to retry
	maxIdentifierLen = 100
)

// FileLock represents a held file-based lock.
type FileLock struct {
	file *os.File
	path string
}

// getLockDir returns the lock directory path (~/.aliesce/locks).
func getLockDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".aliesce", "locks"), nil
}

// sanitizeIdentifier cleans the identifier for safe use in the info file.
func sanitizeIdentifier(id string) string {
	if id == "" {
		return "unknown"
	}
	result := strings.Map(func(r rune) rune {
		if r < 32 || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, id)
	if len(result) > maxIdentifierLen {
		result = result[:maxIdentifierLen]
	}
	return result
}

// Acquire takes the mutation lock, waiting up to the timeout if another
// invocation holds it. identifier names the holder, typically the source
// file path being mutated.
func Acquire(identifier string) (*FileLock, error) {
	lockDir, err := getLockDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(lockDir, 0700); err != nil {
		return nil, fmt.Errorf("could not create lock directory %s: %w", lockDir, err)
	}

	lockPath := filepath.Join(lockDir, "aliesce.lock")
	infoPath := lockPath + ".info"
	identifier = sanitizeIdentifier(identifier)

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("could not open lock file %s: %w", lockPath, err)
	}

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		holder := "unknown"
		if data, err := os.ReadFile(infoPath); err == nil {
			holder = strings.TrimSpace(string(data))
		}
		fmt.Printf("%sWaiting for %s to finish...%s\n", colors.Dim, holder, colors.Reset)

		start := time.Now()
		for {
			if time.Since(start) > lockTimeout {
				lockFile.Close()
				return nil, fmt.Errorf("timed out waiting for lock after %v", lockTimeout)
			}
			time.Sleep(lockPollInterval)
			if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err == nil {
				break
			}
		}
	}

	if err := os.WriteFile(infoPath, []byte(identifier), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "%sWarning: could not write lock info: %v%s\n", colors.Dim, err, colors.Reset)
	}

	return &FileLock{file: lockFile, path: lockPath}, nil
}

// Release releases the file lock.
func (l *FileLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return fmt.Errorf("failed to unlock: %w", unlockErr)
	}
	return closeErr
}
