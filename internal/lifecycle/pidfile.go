// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

var (
	// ErrPIDFileExists is returned when trying to create a PID file that already exists.
	ErrPIDFileExists = errors.New("PID file already exists")

	// ErrPIDFileLocked is returned when another process holds the PID file lock.
	ErrPIDFileLocked = errors.New("PID file is locked by another process")

	// ErrInvalidPID is returned when the PID file contains invalid data.
	ErrInvalidPID = errors.New("invalid PID in file")

	// ErrUnsafeDirectory is returned when the PID file parent is world-writable.
	ErrUnsafeDirectory = errors.New("PID file directory is world-writable")
)

// PIDState classifies what a PID file points at.
type PIDState int

const (
	// PIDAbsent means there is no PID file.
	PIDAbsent PIDState = iota
	// PIDStale means the file names a process that is gone or is not a testnet wrapper.
	PIDStale
	// PIDLive means the file names a running testnet wrapper.
	PIDLive
)

func (s PIDState) String() string {
	switch s {
	case PIDAbsent:
		return "absent"
	case PIDStale:
		return "stale"
	case PIDLive:
		return "live"
	default:
		return fmt.Sprintf("PIDState(%d)", int(s))
	}
}

// PIDFileManager owns the wrapper's PID file. Creation is atomic (O_EXCL)
// and the file stays flock'ed for as long as the wrapper runs.
type PIDFileManager struct {
	path     string
	lockFile *os.File

	// isOwner decides whether a running PID is ours; swapped in tests
	isOwner func(pid int) bool
}

// NewPIDFileManager creates a manager for the PID file at path.
func NewPIDFileManager(path string) *PIDFileManager {
	return &PIDFileManager{
		path:    path,
		isOwner: IsTestnetProcess,
	}
}

// Path returns the PID file location.
func (m *PIDFileManager) Path() string {
	return m.path
}

// Create writes pid to the file and holds an exclusive lock on it.
// Returns ErrPIDFileExists if the file is already there.
func (m *PIDFileManager) Create(pid int) error {
	parentDir := filepath.Dir(m.path)
	if err := m.verifyDirectorySafety(parentDir); err != nil {
		return fmt.Errorf("unsafe PID file location: %w", err)
	}

	if err := os.MkdirAll(parentDir, 0700); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	// O_EXCL refuses symlinks and concurrent creators; O_RDWR is needed for flock
	f, err := os.OpenFile(m.path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return ErrPIDFileExists
		}
		return fmt.Errorf("failed to create PID file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		os.Remove(m.path)
		if err == syscall.EWOULDBLOCK {
			return ErrPIDFileLocked
		}
		return fmt.Errorf("failed to lock PID file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", pid); err != nil {
		f.Close()
		os.Remove(m.path)
		return fmt.Errorf("failed to write PID: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(m.path)
		return fmt.Errorf("failed to sync PID file: %w", err)
	}

	m.lockFile = f
	return nil
}

// Read returns the PID stored in the file. A missing file yields an error
// matching os.ErrNotExist.
func (m *PIDFileManager) Read() (int, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPID, pidStr)
	}

	if pid <= 0 {
		return 0, fmt.Errorf("%w: PID must be positive, got %d", ErrInvalidPID, pid)
	}

	return pid, nil
}

// Inspect reads the PID file and classifies it. Unparseable files count
// as stale so that they get cleaned up instead of blocking every start.
func (m *PIDFileManager) Inspect() (int, PIDState, error) {
	pid, err := m.Read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return 0, PIDAbsent, nil
	case errors.Is(err, ErrInvalidPID):
		return 0, PIDStale, nil
	case err != nil:
		return 0, PIDAbsent, err
	}

	if IsProcessRunning(pid) && m.isOwner(pid) {
		return pid, PIDLive, nil
	}
	return pid, PIDStale, nil
}

// Remove releases the lock, if held, and deletes the file.
func (m *PIDFileManager) Remove() error {
	if m.lockFile != nil {
		syscall.Flock(int(m.lockFile.Fd()), syscall.LOCK_UN)
		m.lockFile.Close()
		m.lockFile = nil
	}

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}

	return nil
}

// verifyDirectorySafety rejects world-writable parents, where another user
// could plant a symlink named like the PID file.
func (m *PIDFileManager) verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if mode := info.Mode(); mode&0002 != 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}

	return nil
}
