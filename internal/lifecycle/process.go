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
	"path/filepath"
	"syscall"
	"time"
)

var (
	// ErrProcessNotRunning is returned when there is no process to stop.
	ErrProcessNotRunning = errors.New("process not running")

	// ErrShutdownTimeout is returned when the process outlives the timeout.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")
)

// exitPollInterval is how often WaitForExit checks the process.
const exitPollInterval = 100 * time.Millisecond

// killGrace bounds the wait after SIGKILL.
const killGrace = 5 * time.Second

// wrapperName is the executable name of the testnet CLI.
const wrapperName = "testnet"

// ProcessInfo describes the process behind a PID.
type ProcessInfo struct {
	PID     int
	Running bool
	Command string
}

// ShutdownResult reports how GracefulShutdown ended a process.
type ShutdownResult struct {
	// Forced is set when SIGTERM was not enough and SIGKILL was sent.
	Forced  bool
	Elapsed time.Duration
}

// IsProcessRunning checks pid with signal 0. A process owned by another
// user (EPERM) still counts as running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// IsTestnetProcess reports whether pid runs the testnet CLI, judged by the
// base name of its argv[0]. The launch script and processes that merely
// mention a testnet path do not match, so stop does not signal them after
// PID reuse.
func IsTestnetProcess(pid int) bool {
	argv0, err := getProcessArgv0(pid)
	if err != nil {
		return false
	}
	return isWrapperCommand(argv0)
}

func isWrapperCommand(argv0 string) bool {
	return argv0 != "" && filepath.Base(argv0) == wrapperName
}

// SendSignal delivers sig to pid.
func SendSignal(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("invalid PID %d", pid)
	}
	if err := syscall.Kill(pid, sig); err != nil {
		return fmt.Errorf("failed to send %v to process %d: %w", sig, pid, err)
	}
	return nil
}

// WaitForExit polls until pid is gone or timeout elapses. A child of the
// caller only disappears once it has been reaped.
func WaitForExit(pid int, timeout time.Duration) error {
	if !IsProcessRunning(pid) {
		return nil
	}

	ticker := time.NewTicker(exitPollInterval)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for {
		select {
		case <-ticker.C:
			if !IsProcessRunning(pid) {
				return nil
			}
		case <-deadline:
			return ErrShutdownTimeout
		}
	}
}

// GracefulShutdown sends SIGTERM to pid and waits up to timeout for it to
// go away. With force, a survivor is sent SIGKILL.
func GracefulShutdown(pid int, timeout time.Duration, force bool) (ShutdownResult, error) {
	var result ShutdownResult
	start := time.Now()

	if !IsProcessRunning(pid) {
		return result, ErrProcessNotRunning
	}

	if err := SendSignal(pid, syscall.SIGTERM); err != nil {
		return result, err
	}

	err := WaitForExit(pid, timeout)
	if err == nil || !force {
		result.Elapsed = time.Since(start)
		return result, err
	}

	result.Forced = true
	if err := SendSignal(pid, syscall.SIGKILL); err != nil {
		return result, err
	}
	if err := WaitForExit(pid, killGrace); err != nil {
		return result, fmt.Errorf("process %d survived SIGKILL: %w", pid, err)
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// DescribeProcess looks up pid. Command is empty when the process is gone
// and "<unknown>" when its command line cannot be read.
func DescribeProcess(pid int) ProcessInfo {
	info := ProcessInfo{PID: pid, Running: IsProcessRunning(pid)}
	if !info.Running {
		return info
	}

	cmd, err := getProcessCommand(pid)
	if err != nil {
		cmd = "<unknown>"
	}
	info.Command = cmd
	return info
}
