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

/*
Package lifecycle holds the process plumbing behind the testnet CLI.

# Spawning

A Spawner starts the launch command with an explicit environment and the
caller's standard streams, and hands back the process handle:

	proc, err := lifecycle.NewSpawner().WithEnv(env).Spawn("./testnet.bash")

# PID Files

The foreground wrapper records its own PID so that "testnet stop" can find
it. Files are created with O_EXCL and held under flock:

	pidFile := lifecycle.NewPIDFileManager(path)
	pid, state, err := pidFile.Inspect()
	if state == lifecycle.PIDLive {
	    // another wrapper owns the network
	}

# Signals

	result, err := lifecycle.GracefulShutdown(pid, 30*time.Second, force)
	if errors.Is(err, lifecycle.ErrShutdownTimeout) {
	    // still running
	}
	_ = result.Forced // SIGKILL was needed

# Event Log

Start, terminate and stop are appended to a JSON-lines audit log:

	events := lifecycle.NewEventLogger(path)
	events.LogStart(lifecycle.LaunchInfo{LaunchCommand: cmd, NetworkID: 1337})
*/
package lifecycle
