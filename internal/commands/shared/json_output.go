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
	"encoding/json"
	"io"

	testneterrors "github.com/moonstream-to/testnet.bash/pkg/errors"
)

// JSONVersion is the schema version stamped on every JSON response.
const JSONVersion = "1.0"

// JSONResponse is the base envelope for all JSON output
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// NewJSONResponse returns the envelope for command.
func NewJSONResponse(command string, success bool) JSONResponse {
	return JSONResponse{Version: JSONVersion, Command: command, Success: success}
}

// JSONError is a structured error with a machine-readable code.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
}

// EmitJSON writes response to w as a single JSON line, so a long-running
// command can stream several responses.
func EmitJSON(w io.Writer, response any) error {
	return json.NewEncoder(w).Encode(response)
}

// WriteJSONError writes err as a failed response for command.
func WriteJSONError(w io.Writer, command string, err error) error {
	code := testneterrors.TypeOf(err)
	if code == "" {
		code = "error"
	}

	resp := struct {
		JSONResponse
		ExitCode int         `json:"exit_code"`
		Errors   []JSONError `json:"errors"`
	}{
		JSONResponse: NewJSONResponse(command, false),
		ExitCode:     ExitCode(err),
		Errors: []JSONError{{
			Code:       code,
			Message:    err.Error(),
			Suggestion: testneterrors.SuggestionFor(err),
			Retryable:  testneterrors.IsRetryable(err),
		}},
	}
	return EmitJSON(w, resp)
}
