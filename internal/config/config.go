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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moonstream-to/testnet.bash/internal/log"
	"github.com/moonstream-to/testnet.bash/internal/testnet"
	testneterrors "github.com/moonstream-to/testnet.bash/pkg/errors"
)

// DefaultLaunchCommand is looked up on PATH when nothing else is configured.
const DefaultLaunchCommand = "testnet.bash"

// Config is the testnet CLI configuration.
type Config struct {
	// LaunchCommand is the script that brings the network up.
	// Environment: TESTNET_LAUNCH_COMMAND
	LaunchCommand string `yaml:"launch_command"`

	// WorkingDirectory holds the network's persistent state. Empty means a
	// new temporary directory per start.
	// Environment: TESTNET_WORKING_DIRECTORY
	WorkingDirectory string `yaml:"working_directory,omitempty"`

	// NetworkID is the chain ID handed to the script.
	// Environment: TESTNET_NETWORK_ID
	NetworkID int `yaml:"network_id"`

	// SharedSecret is the password for every generated account.
	// Environment: TESTNET_SHARED_SECRET
	SharedSecret string `yaml:"shared_secret"`

	// PIDFile records the PID of the running wrapper.
	// Environment: TESTNET_PID_FILE
	// Default: ~/.testnet/testnet.pid
	PIDFile string `yaml:"pid_file,omitempty"`

	// EventLog is the JSON-lines lifecycle log.
	// Environment: TESTNET_EVENT_LOG
	// Default: $XDG_DATA_HOME/testnet/lifecycle.log
	EventLog string `yaml:"event_log,omitempty"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures the CLI's own logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LaunchCommand: DefaultLaunchCommand,
		NetworkID:     testnet.DefaultNetworkID,
		SharedSecret:  testnet.DefaultSharedSecret,
		Log: LogConfig{
			Level:  "info",
			Format: string(log.FormatAuto),
		},
	}
}

// Load builds the configuration from defaults, the YAML file and the
// environment, in increasing order of precedence.
//
// An empty configPath means the default location, which may be absent.
// An explicit path must exist. The result is not validated: callers apply
// their own overrides first and then call Validate.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	path := configPath
	if path == "" {
		defaultPath, err := ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(defaultPath); statErr == nil {
				path = defaultPath
			}
		}
	}

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, &testneterrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", path),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	d := Default()
	if c.LaunchCommand == "" {
		c.LaunchCommand = d.LaunchCommand
	}
	if c.NetworkID == 0 {
		c.NetworkID = d.NetworkID
	}
	if c.SharedSecret == "" {
		c.SharedSecret = d.SharedSecret
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

func (c *Config) loadFromEnv() error {
	if val := os.Getenv("TESTNET_LAUNCH_COMMAND"); val != "" {
		c.LaunchCommand = val
	}
	if val := os.Getenv("TESTNET_WORKING_DIRECTORY"); val != "" {
		c.WorkingDirectory = val
	}
	if val := os.Getenv("TESTNET_NETWORK_ID"); val != "" {
		id, err := strconv.Atoi(val)
		if err != nil {
			return &testneterrors.ConfigError{
				Key:    "network_id",
				Reason: fmt.Sprintf("TESTNET_NETWORK_ID is not an integer: %q", val),
				Cause:  err,
			}
		}
		c.NetworkID = id
	}
	if val := os.Getenv("TESTNET_SHARED_SECRET"); val != "" {
		c.SharedSecret = val
	}
	if val := os.Getenv("TESTNET_PID_FILE"); val != "" {
		c.PIDFile = val
	}
	if val := os.Getenv("TESTNET_EVENT_LOG"); val != "" {
		c.EventLog = val
	}

	lc := c.LoggerConfig()
	log.ApplyEnv(lc)
	c.Log.Level = lc.Level
	c.Log.Format = string(lc.Format)
	c.Log.AddSource = lc.AddSource
	return nil
}

// Validate checks the configuration for values the CLI cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.LaunchCommand) == "" {
		errs = append(errs, &testneterrors.ConfigError{Key: "launch_command", Reason: "must not be empty"})
	}
	if c.NetworkID <= 0 {
		errs = append(errs, &testneterrors.ConfigError{
			Key:    "network_id",
			Reason: fmt.Sprintf("must be positive, got %d", c.NetworkID),
		})
	}

	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &testneterrors.ConfigError{
			Key:    "log.level",
			Reason: fmt.Sprintf("unknown level %q", c.Log.Level),
		})
	}

	switch log.Format(c.Log.Format) {
	case log.FormatJSON, log.FormatText, log.FormatAuto:
	default:
		errs = append(errs, &testneterrors.ConfigError{
			Key:    "log.format",
			Reason: fmt.Sprintf("unknown format %q", c.Log.Format),
		})
	}

	return errors.Join(errs...)
}

// PIDFilePath returns the configured PID file or the default location.
func (c *Config) PIDFilePath() string {
	if c.PIDFile != "" {
		return c.PIDFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "testnet.pid")
	}
	return filepath.Join(home, ".testnet", "testnet.pid")
}

// EventLogPath returns the configured lifecycle log or the default location.
func (c *Config) EventLogPath() string {
	if c.EventLog != "" {
		return c.EventLog
	}
	dir, err := DataDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "testnet-lifecycle.log")
	}
	return filepath.Join(dir, "lifecycle.log")
}

// LoggerConfig converts the log section into a logger configuration.
func (c *Config) LoggerConfig() *log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = log.Format(c.Log.Format)
	cfg.AddSource = c.Log.AddSource
	return cfg
}
