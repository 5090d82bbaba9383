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
	"fmt"
	"os"
	"os/exec"
)

// Spawner starts child processes that share the caller's terminal.
type Spawner struct {
	// Env is the complete environment of the child process
	Env []string
}

// NewSpawner creates a spawner that passes the current environment through.
func NewSpawner() *Spawner {
	return &Spawner{
		Env: os.Environ(),
	}
}

// WithEnv replaces the environment handed to spawned processes.
func (s *Spawner) WithEnv(env []string) *Spawner {
	s.Env = env
	return s
}

// Spawn starts binary with args and returns its process handle.
//
// Standard streams and the working directory are inherited from the caller. Spawn neither waits for
// the child nor releases it, so the handle stays valid for signalling.
func (s *Spawner) Spawn(binary string, args ...string) (*os.Process, error) {
	cmd := exec.Command(binary, args...)
	cmd.Env = s.Env

	// exec.Cmd connects nil streams to the null device
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	return cmd.Process, nil
}
