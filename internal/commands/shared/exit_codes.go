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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	testneterrors "github.com/moonstream-to/testnet.bash/pkg/errors"
)

const (
	ExitSuccess        = 0
	ExitFailure        = 1
	ExitInvalidConfig  = 2
	ExitStartFailed    = 3
	ExitAlreadyRunning = 4
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

func NewInvalidConfigError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitInvalidConfig, Message: msg, Cause: cause}
}

func NewStartFailedError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitStartFailed, Message: msg, Cause: cause}
}

func NewAlreadyRunningError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitAlreadyRunning, Message: msg, Cause: cause}
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch testneterrors.TypeOf(err) {
	case "config", "validation":
		return ExitInvalidConfig
	}
	return ExitFailure
}

// WriteError prints err and any user-facing suggestion to w.
func WriteError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, RenderError("Error: "+err.Error()))
	if suggestion := testneterrors.SuggestionFor(err); suggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
	}
	if testneterrors.IsRetryable(err) {
		fmt.Fprintln(w, Muted.Render("This may be temporary. Running the command again can succeed."))
	}
}

// HandleExitError prints err and exits with its code. With --json the
// error is also written to stdout as a JSON error response.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	if GetJSON() {
		_ = WriteJSONError(os.Stdout, "", err)
	}
	WriteError(os.Stderr, err)
	os.Exit(ExitCode(err))
}
