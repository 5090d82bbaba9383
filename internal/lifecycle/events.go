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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Event names written to the lifecycle log.
const (
	EventStart            = "start"
	EventStartSuccess     = "start_success"
	EventStartFailure     = "start_failure"
	EventAlreadyRunning   = "already_running"
	EventTerminate        = "terminate"
	EventTerminateFailure = "terminate_failure"
	EventStop             = "stop"
	EventStopSuccess      = "stop_success"
	EventStopFailure      = "stop_failure"
	EventStalePID         = "stale_pid_detected"
)

// LaunchInfo is the launch configuration recorded with start events.
// The shared secret is deliberately absent.
type LaunchInfo struct {
	LaunchCommand    string
	WorkingDirectory string
	NetworkID        int
}

// Event is one line of the lifecycle log.
type Event struct {
	Timestamp        time.Time `json:"timestamp"`
	Event            string    `json:"event"`
	SessionID        string    `json:"session_id"`
	PID              int       `json:"pid,omitempty"`
	LaunchCommand    string    `json:"launch_command,omitempty"`
	WorkingDirectory string    `json:"working_directory,omitempty"`
	NetworkID        int       `json:"network_id,omitempty"`
	Success          bool      `json:"success"`
	Message          string    `json:"message,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// EventLogger appends lifecycle events as JSON lines. All events written
// through one logger share a session ID, which ties a start to its stop.
type EventLogger struct {
	logPath   string
	sessionID string
	now       func() time.Time
}

// NewEventLogger creates a logger writing to logPath under a fresh session ID.
func NewEventLogger(logPath string) *EventLogger {
	return &EventLogger{
		logPath:   logPath,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}
}

// SessionID returns the ID stamped on every event from this logger.
func (l *EventLogger) SessionID() string {
	return l.sessionID
}

// LogStart records that a launch is about to be attempted.
func (l *EventLogger) LogStart(info LaunchInfo) error {
	return l.writeEvent(Event{
		Event:            EventStart,
		LaunchCommand:    info.LaunchCommand,
		WorkingDirectory: info.WorkingDirectory,
		NetworkID:        info.NetworkID,
		Success:          true,
		Message:          "Testnet launch initiated",
	})
}

// LogStartSuccess records a successful spawn of the launch command.
func (l *EventLogger) LogStartSuccess(pid int, info LaunchInfo) error {
	return l.writeEvent(Event{
		Event:            EventStartSuccess,
		PID:              pid,
		LaunchCommand:    info.LaunchCommand,
		WorkingDirectory: info.WorkingDirectory,
		NetworkID:        info.NetworkID,
		Success:          true,
		Message:          fmt.Sprintf("Testnet launched (PID %d)", pid),
	})
}

// LogStartFailure records a failed launch.
func (l *EventLogger) LogStartFailure(err error) error {
	return l.writeEvent(Event{
		Event:   EventStartFailure,
		Success: false,
		Message: "Testnet failed to start",
		Error:   errString(err),
	})
}

// LogAlreadyRunning records a start refused because a wrapper is live.
func (l *EventLogger) LogAlreadyRunning(pid int) error {
	return l.writeEvent(Event{
		Event:   EventAlreadyRunning,
		PID:     pid,
		Success: true,
		Message: "Testnet already running",
	})
}

// LogTerminate records a termination request sent to the launched process.
func (l *EventLogger) LogTerminate(pid int) error {
	return l.writeEvent(Event{
		Event:   EventTerminate,
		PID:     pid,
		Success: true,
		Message: "Termination requested",
	})
}

// LogTerminateFailure records a termination request that could not be delivered.
func (l *EventLogger) LogTerminateFailure(pid int, err error) error {
	return l.writeEvent(Event{
		Event:   EventTerminateFailure,
		PID:     pid,
		Success: false,
		Message: "Failed to deliver termination request",
		Error:   errString(err),
	})
}

// LogStop records that a stop of the wrapper was requested.
func (l *EventLogger) LogStop(pid int, force bool) error {
	message := "Testnet stop initiated"
	if force {
		message = "Testnet force stop initiated"
	}
	return l.writeEvent(Event{
		Event:   EventStop,
		PID:     pid,
		Success: true,
		Message: message,
	})
}

// LogStopSuccess records that the wrapper exited.
func (l *EventLogger) LogStopSuccess(pid int, duration time.Duration) error {
	return l.writeEvent(Event{
		Event:   EventStopSuccess,
		PID:     pid,
		Success: true,
		Message: fmt.Sprintf("Testnet stopped (duration: %v)", duration),
	})
}

// LogStopFailure records a failed stop.
func (l *EventLogger) LogStopFailure(pid int, err error) error {
	return l.writeEvent(Event{
		Event:   EventStopFailure,
		PID:     pid,
		Success: false,
		Message: "Failed to stop testnet",
		Error:   errString(err),
	})
}

// LogStalePID records removal of a PID file left behind by a dead wrapper.
func (l *EventLogger) LogStalePID(pid int, reason string) error {
	return l.writeEvent(Event{
		Event:   EventStalePID,
		PID:     pid,
		Success: true,
		Message: fmt.Sprintf("Stale PID file detected and removed: %s", reason),
	})
}

func (l *EventLogger) writeEvent(event Event) error {
	event.Timestamp = l.now()
	event.SessionID = l.sessionID

	if err := os.MkdirAll(filepath.Dir(l.logPath), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lifecycle log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
