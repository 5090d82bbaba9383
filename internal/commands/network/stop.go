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

package network

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonstream-to/testnet.bash/internal/commands/shared"
	"github.com/moonstream-to/testnet.bash/internal/config"
	"github.com/moonstream-to/testnet.bash/internal/lifecycle"
	"github.com/moonstream-to/testnet.bash/internal/log"
	testneterrors "github.com/moonstream-to/testnet.bash/pkg/errors"
)

// NewStopCommand creates the stop command.
func NewStopCommand() *cobra.Command {
	var (
		opts    stopOptions
		pidFile string
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a testnet started with 'testnet start'",
		Long: `Stop the foreground 'testnet start' wrapper recorded in the PID file.

The wrapper receives SIGTERM, forwards it to the testnet script and exits.
This command waits for the wrapper to exit, not for the network itself.
With --force, a wrapper still running after --timeout is killed; the
script is then left running.

If no wrapper is running, stale PID files are removed and the command
succeeds.`,
		Example: `  # Stop the running testnet
  testnet stop

  # Give up after 5 seconds and kill the wrapper
  testnet stop --timeout 5s --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), nil, pidFile)
			if err != nil {
				return err
			}
			return runStop(cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "How long to wait for the wrapper to exit")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Send SIGKILL if the wrapper is still running after the timeout")
	registerPIDFileFlag(cmd.Flags(), &pidFile)

	return cmd
}

type stopOptions struct {
	timeout time.Duration
	force   bool
}

// stopResponse is the --json form of stop's result.
type stopResponse struct {
	shared.JSONResponse
	Status    string `json:"status"`
	PID       int    `json:"pid,omitempty"`
	Forced    bool   `json:"forced,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
}

func runStop(out io.Writer, cfg *config.Config, opts stopOptions) error {
	events := lifecycle.NewEventLogger(cfg.EventLogPath())
	logger := log.WithSession(newLogger(cfg), events.SessionID())

	pidFile := lifecycle.NewPIDFileManager(cfg.PIDFilePath())
	pid, state, err := pidFile.Inspect()
	if err != nil {
		return testneterrors.Wrap(err, "failed to read PID file")
	}

	switch state {
	case lifecycle.PIDAbsent:
		return reportStop(out, stopResponse{Status: "not_running"},
			"Testnet is not running (no PID file)")
	case lifecycle.PIDStale:
		warnOnLogError(logger, events.LogStalePID(pid, "process not running"))
		if err := pidFile.Remove(); err != nil {
			return testneterrors.Wrap(err, "failed to remove stale PID file")
		}
		return reportStop(out, stopResponse{Status: "stale", PID: pid},
			shared.RenderWarn(fmt.Sprintf("Testnet process %d is not running (removed stale PID file)", pid)))
	}

	warnOnLogError(logger, events.LogStop(pid, opts.force))
	logger.Debug("stopping testnet wrapper",
		log.PID(pid),
		slog.String("command", lifecycle.DescribeProcess(pid).Command))

	result, err := lifecycle.GracefulShutdown(pid, opts.timeout, opts.force)
	if err != nil {
		warnOnLogError(logger, events.LogStopFailure(pid, err))
		if errors.Is(err, lifecycle.ErrShutdownTimeout) {
			return &testneterrors.TimeoutError{Operation: "testnet stop", Duration: opts.timeout, Cause: err}
		}
		return testneterrors.Wrapf(err, "failed to stop testnet (PID %d)", pid)
	}

	// a killed wrapper cannot clean up after itself
	if err := pidFile.Remove(); err != nil {
		logger.Warn("failed to remove PID file", log.Error(err))
	}

	warnOnLogError(logger, events.LogStopSuccess(pid, result.Elapsed))

	resp := stopResponse{
		Status:    "stopped",
		PID:       pid,
		Forced:    result.Forced,
		ElapsedMS: result.Elapsed.Milliseconds(),
	}
	if result.Forced {
		return reportStop(out, resp,
			shared.RenderWarn("Testnet stopped (wrapper killed; the testnet script may still be running)"))
	}
	return reportStop(out, resp, shared.RenderOK("Testnet stopped"))
}

// reportStop writes resp with --json, otherwise message unless --quiet.
func reportStop(out io.Writer, resp stopResponse, message string) error {
	if shared.GetJSON() {
		resp.JSONResponse = shared.NewJSONResponse("stop", true)
		return shared.EmitJSON(out, resp)
	}
	if !shared.GetQuiet() {
		fmt.Fprintln(out, message)
	}
	return nil
}
