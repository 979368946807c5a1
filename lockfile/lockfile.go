// Package lockfile implements the .txsync.lock run lock. Two sync
// runs against the same checkout would race on the git index and the
// catalog tree, so a run takes the lock before its first step and
// releases it when done. A lock left behind by a dead process on the
// same host is treated as stale and replaced.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

// LockFileName is the lock file name, created in the project root.
const LockFileName = ".txsync.lock"

// Lock describes a held run lock.
type Lock struct {
	PID     int       `yaml:"pid"`
	Host    string    `yaml:"host"`
	Started time.Time `yaml:"started"`

	path string
}

// ErrHeld is returned when another live process holds the lock.
var ErrHeld = errors.New("lock held by another process")

// Acquire takes the run lock in dir. It fails with an error wrapping
// ErrHeld when a live process on this host already holds it; a lock
// whose owner is gone is silently replaced.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, LockFileName)

	if _, err := os.Stat(path); err == nil {
		old, err := read(path)
		if err == nil {
			host, _ := os.Hostname()
			if old.Host == host && alive(old.PID) {
				return nil, fmt.Errorf("%s: %w (pid %d since %s)",
					path, ErrHeld, old.PID, old.Started.Format(time.RFC3339))
			}
		}
		// Owner is gone, the file is unreadable, or it was taken on
		// another host where liveness cannot be checked: stale.
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("removing stale lock %s: %w", path, err)
		}
	}

	host, _ := os.Hostname()
	lock := &Lock{
		PID:     os.Getpid(),
		Host:    host,
		Started: time.Now().UTC(),
		path:    path,
	}

	data, err := yaml.Marshal(lock)
	if err != nil {
		return nil, fmt.Errorf("marshaling lock: %w", err)
	}

	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrHeld)
		}
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := fh.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	return lock, nil
}

// Release removes the lock file. Safe to call once per acquired lock.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

func read(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lock Lock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, err
	}
	lock.path = path
	return &lock, nil
}

// alive reports whether pid names a running process. Signal 0 performs
// the existence check without delivering anything.
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
