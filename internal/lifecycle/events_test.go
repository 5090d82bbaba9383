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
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestEventLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "lifecycle.log")
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	l := NewEventLogger(logPath)
	l.now = func() time.Time { return fixed }

	_, err := uuid.Parse(l.SessionID())
	require.NoError(t, err, "session ID should be a UUID")

	info := LaunchInfo{LaunchCommand: "./testnet.bash", WorkingDirectory: "/tmp/t1", NetworkID: 99}
	require.NoError(t, l.LogStart(info))
	require.NoError(t, l.LogStartSuccess(4321, info))
	require.NoError(t, l.LogTerminate(4321))
	require.NoError(t, l.LogTerminateFailure(4321, errors.New("os: process already finished")))

	events := readEvents(t, logPath)
	require.Len(t, events, 4)

	assert.Equal(t, EventStart, events[0].Event)
	assert.Equal(t, "./testnet.bash", events[0].LaunchCommand)
	assert.Equal(t, 99, events[0].NetworkID)
	assert.True(t, events[0].Success)

	assert.Equal(t, EventStartSuccess, events[1].Event)
	assert.Equal(t, 4321, events[1].PID)
	assert.Equal(t, "/tmp/t1", events[1].WorkingDirectory)

	assert.Equal(t, EventTerminate, events[2].Event)

	assert.Equal(t, EventTerminateFailure, events[3].Event)
	assert.False(t, events[3].Success)
	assert.Equal(t, "os: process already finished", events[3].Error)

	for _, e := range events {
		assert.Equal(t, l.SessionID(), e.SessionID)
		assert.True(t, fixed.Equal(e.Timestamp))
	}

	info2, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info2.Mode()&os.ModePerm)
}

func TestEventLogger_StopEvents(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lifecycle.log")
	l := NewEventLogger(logPath)

	require.NoError(t, l.LogStalePID(77, "process not running"))
	require.NoError(t, l.LogAlreadyRunning(78))
	require.NoError(t, l.LogStop(78, true))
	require.NoError(t, l.LogStopFailure(78, ErrShutdownTimeout))
	require.NoError(t, l.LogStopSuccess(78, 2*time.Second))
	require.NoError(t, l.LogStartFailure(errors.New("exec: no such file")))

	events := readEvents(t, logPath)
	require.Len(t, events, 6)

	assert.Equal(t, "Stale PID file detected and removed: process not running", events[0].Message)
	assert.Equal(t, EventAlreadyRunning, events[1].Event)
	assert.Equal(t, "Testnet force stop initiated", events[2].Message)
	assert.Equal(t, ErrShutdownTimeout.Error(), events[3].Error)
	assert.Contains(t, events[4].Message, "2s")
	assert.Equal(t, EventStartFailure, events[5].Event)
	assert.Empty(t, events[5].PID)
}

func TestEventLogger_SessionsDiffer(t *testing.T) {
	a := NewEventLogger("a.log")
	b := NewEventLogger("b.log")
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestEventLogger_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	l := NewEventLogger(filepath.Join(blocker, "lifecycle.log"))
	assert.Error(t, l.LogTerminate(1))
}
