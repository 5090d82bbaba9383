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

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, FormatAuto, cfg.Format)
	assert.Equal(t, os.Stderr, cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name       string
		base       Config
		envVars    map[string]string
		wantLevel  string
		wantFormat Format
		wantSource bool
	}{
		{
			name:       "unset variables keep the base",
			base:       Config{Level: "warn", Format: FormatText, AddSource: true},
			wantLevel:  "warn",
			wantFormat: FormatText,
			wantSource: true,
		},
		{
			name:       "LOG_LEVEL is lowercased",
			base:       Config{Level: "info", Format: FormatAuto},
			envVars:    map[string]string{"LOG_LEVEL": "DEBUG"},
			wantLevel:  "debug",
			wantFormat: FormatAuto,
		},
		{
			name:       "TESTNET_LOG_LEVEL beats LOG_LEVEL",
			base:       Config{Level: "info", Format: FormatAuto},
			envVars:    map[string]string{"LOG_LEVEL": "error", "TESTNET_LOG_LEVEL": "warn"},
			wantLevel:  "warn",
			wantFormat: FormatAuto,
		},
		{
			name:       "TESTNET_DEBUG beats everything",
			base:       Config{Level: "info", Format: FormatAuto},
			envVars:    map[string]string{"TESTNET_DEBUG": "true", "TESTNET_LOG_LEVEL": "error", "LOG_SOURCE": "0"},
			wantLevel:  "debug",
			wantFormat: FormatAuto,
			wantSource: true,
		},
		{
			name:       "format and source",
			base:       Config{Level: "info", Format: FormatAuto},
			envVars:    map[string]string{"LOG_FORMAT": "TEXT", "LOG_SOURCE": "1"},
			wantLevel:  "info",
			wantFormat: FormatText,
			wantSource: true,
		},
		{
			name:       "LOG_SOURCE can switch source off",
			base:       Config{Level: "info", Format: FormatJSON, AddSource: true},
			envVars:    map[string]string{"LOG_SOURCE": "0"},
			wantLevel:  "info",
			wantFormat: FormatJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"TESTNET_DEBUG", "TESTNET_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.base
			ApplyEnv(&cfg)
			assert.Equal(t, tt.wantLevel, cfg.Level)
			assert.Equal(t, tt.wantFormat, cfg.Format)
			assert.Equal(t, tt.wantSource, cfg.AddSource)
		})
	}
}

func TestNew_Formats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		New(&Config{Level: "info", Format: FormatJSON, Output: &buf}).Info("launched", PID(42))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "launched", record["msg"])
		assert.Equal(t, float64(42), record["pid"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		New(&Config{Level: "info", Format: FormatText, Output: &buf}).Info("launched", PID(42))
		assert.Contains(t, buf.String(), "msg=launched")
		assert.Contains(t, buf.String(), "pid=42")
	})

	t.Run("auto on a non-terminal writer is json", func(t *testing.T) {
		var buf bytes.Buffer
		New(&Config{Format: FormatAuto, Output: &buf}).Info("x")
		assert.True(t, strings.HasPrefix(buf.String(), "{"))
	})

	t.Run("nil config", func(t *testing.T) {
		assert.NotNil(t, New(nil))
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "warn", Format: FormatText, Output: &buf})

	logger.Info("hidden")
	Trace(logger, "hidden too")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	Trace(New(&Config{Level: "trace", Format: FormatText, Output: &buf}), "traced")
	assert.Contains(t, buf.String(), "traced")
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Format: FormatJSON, Output: &buf})

	logger = WithComponent(logger, "testnet")
	logger = WithSession(logger, "0b5f")
	logger.Error("terminate failed", Error(errors.New("process already finished")))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "testnet", record[ComponentKey])
	assert.Equal(t, "0b5f", record[SessionKey])
	assert.Equal(t, "process already finished", record["error"])
}

func TestSanitizeSecret(t *testing.T) {
	assert.Equal(t, "[REDACTED]", SanitizeSecret("peppercat"))
	assert.Equal(t, "", SanitizeSecret(""))
}
