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
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"syscall"

	"github.com/moonstream-to/testnet.bash/internal/lifecycle"
	"github.com/moonstream-to/testnet.bash/internal/log"
	testneterrors "github.com/moonstream-to/testnet.bash/pkg/errors"
)

const (
	// DefaultNetworkID is the chain ID used when none is configured.
	DefaultNetworkID = 1337

	// DefaultSharedSecret is a throwaway password for generated accounts.
	// Anything that outlives a test run should set its own.
	DefaultSharedSecret = "peppercat"
)

// Environment variables read by the launch command.
const (
	EnvWorkingDirectory = "WORKING_DIRECTORY"
	EnvNetworkChainID   = "NETWORK_CHAIN_ID"
	EnvSharedSecret     = "SHARED_SECRET"
)

// workingDirPattern is the os.MkdirTemp pattern for generated working directories.
const workingDirPattern = "testnet-"

type spawnFunc func(binary string, env []string) (process, error)

// Controller launches the testnet script and can later ask it to stop.
//
// A Controller owns at most one launched process. It is meant to be driven
// from a single goroutine and does no locking.
type Controller struct {
	launchCommand    string
	workingDirectory string
	networkID        int
	sharedSecret     string

	environ func() []string
	spawn   spawnFunc
	logger  *slog.Logger

	child childSlot
}

// Option configures a Controller.
type Option func(*Controller)

// WithWorkingDirectory sets the directory the network keeps its state in.
// An empty dir means a fresh temporary directory is created.
func WithWorkingDirectory(dir string) Option {
	return func(c *Controller) {
		c.workingDirectory = dir
	}
}

// WithNetworkID sets the chain ID passed to the launch command.
func WithNetworkID(id int) Option {
	return func(c *Controller) {
		c.networkID = id
	}
}

// WithSharedSecret sets the password used for all generated accounts.
func WithSharedSecret(secret string) Option {
	return func(c *Controller) {
		c.sharedSecret = secret
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithEnviron sets where the ambient environment is read from at Start.
// The default is os.Environ.
func WithEnviron(environ func() []string) Option {
	return func(c *Controller) {
		c.environ = environ
	}
}

// New creates a controller for launchCommand.
//
// If no working directory is given, New creates a new, uniquely named
// temporary directory. The directory is never removed by the controller.
// Nothing is spawned until Start.
func New(launchCommand string, opts ...Option) (*Controller, error) {
	if launchCommand == "" {
		return nil, &testneterrors.ValidationError{
			Field:          "launch_command",
			Message:        "must not be empty",
			SuggestionText: "Pass the path of the script that brings up the network",
		}
	}

	c := &Controller{
		launchCommand: launchCommand,
		networkID:     DefaultNetworkID,
		sharedSecret:  DefaultSharedSecret,
		environ:       os.Environ,
		spawn:         spawnProcess,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = log.WithComponent(c.logger, "testnet")

	if c.workingDirectory == "" {
		dir, err := os.MkdirTemp("", workingDirPattern)
		if err != nil {
			return nil, fmt.Errorf("failed to create working directory: %w", err)
		}
		c.workingDirectory = dir
		c.logger.Debug("created working directory", slog.String("working_directory", dir))
	}

	return c, nil
}

// LaunchCommand returns the path of the script being launched.
func (c *Controller) LaunchCommand() string { return c.launchCommand }

// WorkingDirectory returns the network's state directory.
func (c *Controller) WorkingDirectory() string { return c.workingDirectory }

// NetworkID returns the configured chain ID.
func (c *Controller) NetworkID() int { return c.networkID }

// PID returns the PID of the launched process, or 0 before Start.
func (c *Controller) PID() int {
	if proc, ok := c.child.get(); ok {
		return proc.PID()
	}
	return 0
}

// Start launches the script with no arguments, the caller's standard
// streams and the merged environment.
//
// If a process is already tracked, Start returns a *StartError and does
// nothing else. There is no readiness contract with the script yet, so
// wait cannot be honoured: Start always returns once the process is
// spawned, and logs a warning when wait is requested.
func (c *Controller) Start(wait bool) error {
	if proc, ok := c.child.get(); ok {
		return &StartError{PID: proc.PID()}
	}

	env := BuildEnv(c.environ(), c.overrides())
	log.Trace(c.logger, "spawning launch command",
		slog.String("launch_command", c.launchCommand),
		slog.Int("env_entries", len(env)))

	proc, err := c.spawn(c.launchCommand, env)
	if err != nil {
		return fmt.Errorf("failed to launch %s: %w", c.launchCommand, err)
	}
	if err := c.child.hold(proc); err != nil {
		return err
	}

	c.logger.Info("testnet launched",
		slog.Int("pid", proc.PID()),
		slog.String("launch_command", c.launchCommand),
		slog.String("working_directory", c.workingDirectory),
		slog.Int("network_id", c.networkID),
		slog.String("shared_secret", log.SanitizeSecret(c.sharedSecret)),
	)

	if wait {
		c.logger.Warn("waiting for testnet readiness is not supported, returning after launch",
			slog.Int("pid", proc.PID()))
	}

	return nil
}

// Terminate sends SIGTERM to the launched process and returns without
// waiting for it to exit. The process stays tracked, so a later Start
// still fails. Before Start, Terminate does nothing.
//
// A delivery error, for example because the process already exited, is
// returned as is.
func (c *Controller) Terminate() error {
	proc, ok := c.child.get()
	if !ok {
		return nil
	}

	c.logger.Info("terminating testnet", slog.Int("pid", proc.PID()))
	return c.child.signal(syscall.SIGTERM)
}

func (c *Controller) overrides() map[string]string {
	return map[string]string{
		EnvWorkingDirectory: c.workingDirectory,
		EnvNetworkChainID:   strconv.Itoa(c.networkID),
		EnvSharedSecret:     c.sharedSecret,
	}
}

func spawnProcess(binary string, env []string) (process, error) {
	proc, err := lifecycle.NewSpawner().WithEnv(env).Spawn(binary)
	if err != nil {
		return nil, err
	}
	return osProcess{proc}, nil
}
