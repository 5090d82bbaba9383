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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moonstream-to/testnet.bash/internal/commands/completion"
	"github.com/moonstream-to/testnet.bash/internal/commands/shared"
	"github.com/moonstream-to/testnet.bash/internal/config"
	"github.com/moonstream-to/testnet.bash/internal/lifecycle"
	"github.com/moonstream-to/testnet.bash/internal/log"
	testnetpkg "github.com/moonstream-to/testnet.bash/internal/testnet"
	testneterrors "github.com/moonstream-to/testnet.bash/pkg/errors"
)

// NewStartCommand creates the start command.
func NewStartCommand() *cobra.Command {
	var (
		launch  launchFlags
		pidFile string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Launch a local test network",
		Long: `Launch the testnet script and keep it running until interrupted.

The script receives WORKING_DIRECTORY, NETWORK_CHAIN_ID and SHARED_SECRET
on top of the current environment, and shares this terminal's output.
The command stays in the foreground. On Ctrl-C or SIGTERM (for example
from 'testnet stop') it sends SIGTERM to the script and exits without
waiting for the network to shut down.

Without --working-dir a new temporary directory is used and left in place.`,
		Example: `  # Start with defaults (chain ID 1337)
  testnet start

  # Use a specific script and chain ID
  testnet start --launch-command ./testnet.bash --network-id 31337

  # Keep state between runs
  testnet start --working-dir ~/.testnet/data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), &launch, pidFile)
			if err != nil {
				return err
			}
			return runStart(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	launch.register(cmd.Flags())
	registerPIDFileFlag(cmd.Flags(), &pidFile)

	cmd.RegisterFlagCompletionFunc("launch-command", completion.CompleteLaunchCommand)
	cmd.RegisterFlagCompletionFunc("network-id", completion.CompleteNetworkID)
	cmd.RegisterFlagCompletionFunc("working-dir", completion.CompleteDirectory)

	return cmd
}

// startResponse is the --json form of start's status lines.
type startResponse struct {
	shared.JSONResponse
	Status           string `json:"status"`
	PID              int    `json:"pid"`
	NetworkID        int    `json:"network_id"`
	WorkingDirectory string `json:"working_directory"`
}

// pidFileClaimed runs right after the PID file is written.
var pidFileClaimed = func() {}

func runStart(ctx context.Context, out io.Writer, cfg *config.Config) error {
	events := lifecycle.NewEventLogger(cfg.EventLogPath())
	logger := log.WithSession(newLogger(cfg), events.SessionID())

	pidFile := lifecycle.NewPIDFileManager(cfg.PIDFilePath())
	existingPID, state, err := pidFile.Inspect()
	if err != nil {
		return testneterrors.Wrap(err, "failed to check for a running testnet")
	}

	switch state {
	case lifecycle.PIDLive:
		warnOnLogError(logger, events.LogAlreadyRunning(existingPID))
		return shared.NewAlreadyRunningError(fmt.Sprintf("testnet is already running (PID %d)", existingPID), nil)
	case lifecycle.PIDStale:
		warnOnLogError(logger, events.LogStalePID(existingPID, "process not running"))
		logger.Warn("removing stale PID file", log.PID(existingPID))
		if err := pidFile.Remove(); err != nil {
			return testneterrors.Wrap(err, "failed to remove stale PID file")
		}
	}

	ctrl, err := testnetpkg.New(cfg.LaunchCommand,
		testnetpkg.WithWorkingDirectory(cfg.WorkingDirectory),
		testnetpkg.WithNetworkID(cfg.NetworkID),
		testnetpkg.WithSharedSecret(cfg.SharedSecret),
		testnetpkg.WithLogger(logger),
	)
	if err != nil {
		return shared.NewInvalidConfigError("failed to set up testnet", err)
	}

	info := lifecycle.LaunchInfo{
		LaunchCommand:    ctrl.LaunchCommand(),
		WorkingDirectory: ctrl.WorkingDirectory(),
		NetworkID:        ctrl.NetworkID(),
	}
	warnOnLogError(logger, events.LogStart(info))

	// Once the PID file exists, stop may signal us at any moment.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The PID file names this wrapper, not the script: stop signals us and
	// we forward the request.
	if err := pidFile.Create(os.Getpid()); err != nil {
		warnOnLogError(logger, events.LogStartFailure(err))
		return testneterrors.Wrap(err, "failed to write PID file")
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			logger.Warn("failed to remove PID file", log.Error(err))
		}
	}()
	pidFileClaimed()

	if err := ctrl.Start(false); err != nil {
		warnOnLogError(logger, events.LogStartFailure(err))
		return shared.NewStartFailedError("failed to start testnet", err)
	}
	warnOnLogError(logger, events.LogStartSuccess(ctrl.PID(), info))

	if err := reportStart(out, ctrl, "started"); err != nil {
		return err
	}

	<-sigCtx.Done()

	if err := ctrl.Terminate(); err != nil {
		warnOnLogError(logger, events.LogTerminateFailure(ctrl.PID(), err))
		return testneterrors.Wrap(err, "failed to terminate testnet")
	}
	warnOnLogError(logger, events.LogTerminate(ctrl.PID()))

	return reportStart(out, ctrl, "terminating")
}

func reportStart(out io.Writer, ctrl *testnetpkg.Controller, status string) error {
	if shared.GetJSON() {
		return shared.EmitJSON(out, startResponse{
			JSONResponse:     shared.NewJSONResponse("start", true),
			Status:           status,
			PID:              ctrl.PID(),
			NetworkID:        ctrl.NetworkID(),
			WorkingDirectory: ctrl.WorkingDirectory(),
		})
	}
	if shared.GetQuiet() {
		return nil
	}

	if status == "started" {
		fmt.Fprintln(out, shared.RenderOK("Testnet started"))
		fmt.Fprintln(out, "  "+shared.RenderField("PID", strconv.Itoa(ctrl.PID())))
		fmt.Fprintln(out, "  "+shared.RenderField("Network ID", strconv.Itoa(ctrl.NetworkID())))
		fmt.Fprintln(out, "  "+shared.RenderField("Working directory", ctrl.WorkingDirectory()))
		return nil
	}
	fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("Termination requested (PID %d)", ctrl.PID())))
	return nil
}
