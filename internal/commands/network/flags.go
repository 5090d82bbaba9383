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
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/moonstream-to/testnet.bash/internal/commands/shared"
	"github.com/moonstream-to/testnet.bash/internal/config"
	"github.com/moonstream-to/testnet.bash/internal/log"
)

// launchFlags are the per-command overrides of the launch configuration.
type launchFlags struct {
	launchCommand string
	workingDir    string
	networkID     int
	sharedSecret  string
}

func (f *launchFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.launchCommand, "launch-command", "", "Script that brings up the network (default: testnet.bash)")
	fs.StringVar(&f.workingDir, "working-dir", "", "Directory for network state (default: new temporary directory)")
	fs.IntVar(&f.networkID, "network-id", 0, "Chain ID passed to the script (default: 1337)")
	fs.StringVar(&f.sharedSecret, "shared-secret", "", "Password for all generated accounts")
}

// apply copies explicitly set flags over cfg.
func (f *launchFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("launch-command") {
		cfg.LaunchCommand = f.launchCommand
	}
	if fs.Changed("working-dir") {
		cfg.WorkingDirectory = f.workingDir
	}
	if fs.Changed("network-id") {
		cfg.NetworkID = f.networkID
	}
	if fs.Changed("shared-secret") {
		cfg.SharedSecret = f.sharedSecret
	}
}

func registerPIDFileFlag(fs *pflag.FlagSet, p *string) {
	fs.StringVar(p, "pid-file", "", "PID file of the running wrapper (default: ~/.testnet/testnet.pid)")
}

// loadConfig resolves file, environment and flag settings, in that order.
func loadConfig(fs *pflag.FlagSet, launch *launchFlags, pidFile string) (*config.Config, error) {
	cfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return nil, shared.NewInvalidConfigError("failed to load config", err)
	}

	if launch != nil {
		launch.apply(fs, cfg)
	}
	if fs.Changed("pid-file") {
		cfg.PIDFile = pidFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, shared.NewInvalidConfigError("invalid configuration", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	lc := cfg.LoggerConfig()
	if shared.GetVerbose() {
		lc.Level = "debug"
	}
	return log.New(lc)
}

// warnOnLogError reports a failed lifecycle log write without failing the command.
func warnOnLogError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Warn("failed to write lifecycle log", log.Error(err))
	}
}
