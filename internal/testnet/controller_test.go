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

package testnet

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonstream-to/testnet.bash/internal/log"
	testneterrors "github.com/moonstream-to/testnet.bash/pkg/errors"
)

type fakeProcess struct {
	pid       int
	signals   []os.Signal
	signalErr error
}

func (p *fakeProcess) Signal(sig os.Signal) error {
	p.signals = append(p.signals, sig)
	return p.signalErr
}

func (p *fakeProcess) PID() int { return p.pid }

// fakeSpawner records every launch and hands out fakeProcesses.
type fakeSpawner struct {
	calls []spawnCall
	procs []*fakeProcess
	err   error
}

type spawnCall struct {
	binary string
	env    []string
}

func (s *fakeSpawner) spawn(binary string, env []string) (process, error) {
	s.calls = append(s.calls, spawnCall{binary: binary, env: env})
	if s.err != nil {
		return nil, s.err
	}
	p := &fakeProcess{pid: 4000 + len(s.calls)}
	s.procs = append(s.procs, p)
	return p, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeSpawner) {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger()), WithWorkingDirectory(t.TempDir())}, opts...)
	c, err := New("./testnet.bash", opts...)
	require.NoError(t, err)

	s := &fakeSpawner{}
	c.spawn = s.spawn
	return c, s
}

func TestNew_Defaults(t *testing.T) {
	c, err := New("./testnet.bash", WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(c.WorkingDirectory()) })

	assert.Equal(t, "./testnet.bash", c.LaunchCommand())
	assert.Equal(t, DefaultNetworkID, c.NetworkID())
	assert.Equal(t, 1337, c.NetworkID())
	assert.Equal(t, "peppercat", c.sharedSecret)
	assert.Zero(t, c.PID())

	info, err := os.Stat(c.WorkingDirectory())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Contains(t, filepath.Base(c.WorkingDirectory()), workingDirPattern)
}

func TestNew_GeneratedWorkingDirectoriesDiffer(t *testing.T) {
	before, err := os.ReadDir(os.TempDir())
	require.NoError(t, err)
	existing := make(map[string]bool, len(before))
	for _, e := range before {
		existing[filepath.Join(os.TempDir(), e.Name())] = true
	}

	a, err := New("./testnet.bash", WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(a.WorkingDirectory()) })

	b, err := New("./testnet.bash", WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(b.WorkingDirectory()) })

	assert.NotEqual(t, a.WorkingDirectory(), b.WorkingDirectory())
	assert.False(t, existing[a.WorkingDirectory()], "directory existed before construction")
	assert.False(t, existing[b.WorkingDirectory()], "directory existed before construction")
}

func TestNew_ExplicitWorkingDirectoryIsNotCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "t1")

	c, err := New("./testnet.bash", WithLogger(quietLogger()), WithWorkingDirectory(dir))
	require.NoError(t, err)

	assert.Equal(t, dir, c.WorkingDirectory())
	_, err = os.Stat(dir)
	assert.ErrorIs(t, err, os.ErrNotExist, "New should not touch an explicit directory")
}

func TestNew_RequiresLaunchCommand(t *testing.T) {
	c, err := New("")
	assert.Nil(t, c)

	var validationErr *testneterrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "launch_command", validationErr.Field)
}

func TestNew_TempDirFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	t.Setenv("TMPDIR", blocker)

	_, err := New("./testnet.bash", WithLogger(quietLogger()))
	assert.ErrorContains(t, err, "failed to create working directory")
}

func TestStart_PassesEnvironment(t *testing.T) {
	ambient := []string{"PATH=/usr/bin:/bin", "HOME=/home/tester", "NETWORK_CHAIN_ID=1", "EMPTY="}

	c, s := newTestController(t,
		WithNetworkID(99),
		WithSharedSecret("abc"),
		WithWorkingDirectory("/tmp/t1"),
		WithEnviron(func() []string { return ambient }),
	)

	require.NoError(t, c.Start(false))
	require.Len(t, s.calls, 1)

	call := s.calls[0]
	assert.Equal(t, "./testnet.bash", call.binary)
	assert.Equal(t, []string{
		"PATH=/usr/bin:/bin",
		"HOME=/home/tester",
		"EMPTY=",
		"NETWORK_CHAIN_ID=99",
		"SHARED_SECRET=abc",
		"WORKING_DIRECTORY=/tmp/t1",
	}, call.env)

	// the ambient snapshot is copied, not edited
	assert.Equal(t, "NETWORK_CHAIN_ID=1", ambient[2])
}

func TestStart_ReadsEnvironmentAtStart(t *testing.T) {
	t.Setenv("TESTNET_AMBIENT", "before")
	c, s := newTestController(t)

	t.Setenv("TESTNET_AMBIENT", "after")
	require.NoError(t, c.Start(false))

	v, ok := lookupEnv(s.calls[0].env, "TESTNET_AMBIENT")
	require.True(t, ok)
	assert.Equal(t, "after", v)

	// the global environment is left alone
	assert.NotEqual(t, c.WorkingDirectory(), os.Getenv(EnvWorkingDirectory))
}

func TestStart_Twice(t *testing.T) {
	c, s := newTestController(t)

	require.NoError(t, c.Start(false))
	first := s.procs[0]

	err := c.Start(false)
	require.Error(t, err)

	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, first.PID(), startErr.PID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Equal(t, "testnet was already started", err.Error())

	assert.Len(t, s.calls, 1, "second Start must not spawn")
	assert.Empty(t, first.signals, "second Start must not touch the running process")
	assert.Equal(t, first.PID(), c.PID())
}

func TestStart_WaitIsAcceptedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	c, s := newTestController(t, WithLogger(logger), WithSharedSecret("hunter2"))
	require.NoError(t, c.Start(true))

	assert.Len(t, s.calls, 1)
	assert.Contains(t, buf.String(), "readiness is not supported")
	assert.Contains(t, buf.String(), "component=testnet")
	assert.NotContains(t, buf.String(), "hunter2", "the shared secret must not be logged")
}

func TestStart_TracesLaunch(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&log.Config{Level: "trace", Format: log.FormatText, Output: &buf})

	c, s := newTestController(t, WithLogger(logger), WithEnviron(func() []string { return []string{"A=1"} }))
	require.NoError(t, c.Start(false))

	require.Len(t, s.calls, 1)
	assert.Contains(t, buf.String(), "spawning launch command")
	assert.Contains(t, buf.String(), "env_entries=4")
}

func TestStart_SpawnFailure(t *testing.T) {
	c, s := newTestController(t)
	s.err = errors.New("exec: \"./testnet.bash\": permission denied")

	err := c.Start(false)
	require.Error(t, err)
	assert.ErrorIs(t, err, s.err)
	assert.NotErrorIs(t, err, ErrAlreadyStarted)
	assert.Zero(t, c.PID())

	// nothing is tracked, so a retry is allowed
	s.err = nil
	require.NoError(t, c.Start(false))
	assert.Len(t, s.calls, 2)
}

func TestTerminate_BeforeStart(t *testing.T) {
	c, s := newTestController(t)

	assert.NoError(t, c.Terminate())
	assert.Empty(t, s.calls)
	assert.Zero(t, c.PID())
}

func TestTerminate_SignalsOncePerCall(t *testing.T) {
	c, s := newTestController(t)
	require.NoError(t, c.Start(false))
	proc := s.procs[0]

	require.NoError(t, c.Terminate())
	assert.Equal(t, []os.Signal{syscall.SIGTERM}, proc.signals)

	require.NoError(t, c.Terminate())
	assert.Equal(t, []os.Signal{syscall.SIGTERM, syscall.SIGTERM}, proc.signals)
}

func TestTerminate_KeepsHandle(t *testing.T) {
	c, s := newTestController(t)
	require.NoError(t, c.Start(false))
	require.NoError(t, c.Terminate())

	assert.Equal(t, s.procs[0].PID(), c.PID())
	assert.ErrorIs(t, c.Start(false), ErrAlreadyStarted)
	assert.Len(t, s.calls, 1)
}

func TestTerminate_ReturnsSignalErrorUnchanged(t *testing.T) {
	c, s := newTestController(t)
	require.NoError(t, c.Start(false))
	s.procs[0].signalErr = os.ErrProcessDone

	err := c.Terminate()
	assert.Same(t, os.ErrProcessDone, err)
}

func TestStartError_UserVisible(t *testing.T) {
	err := &StartError{PID: 12}

	var userErr testneterrors.UserVisibleError = err
	assert.True(t, userErr.IsUserVisible())
	assert.Equal(t, "testnet was already started (PID 12)", userErr.UserMessage())
	assert.NotEmpty(t, testneterrors.SuggestionFor(err))
	assert.Equal(t, "start", err.ErrorType())
	assert.False(t, err.IsRetryable())
}
