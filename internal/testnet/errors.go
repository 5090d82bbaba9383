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
	"errors"
	"fmt"
)

// ErrAlreadyStarted matches any StartError via errors.Is.
var ErrAlreadyStarted = errors.New("testnet was already started")

// StartError is returned by Start when the controller already tracks a
// launched process. Nothing is spawned and the tracked process is untouched.
type StartError struct {
	// PID of the process already being tracked
	PID int
}

func (e *StartError) Error() string {
	return ErrAlreadyStarted.Error()
}

func (e *StartError) Is(target error) bool {
	return target == ErrAlreadyStarted
}

func (e *StartError) IsUserVisible() bool { return true }

func (e *StartError) UserMessage() string {
	return fmt.Sprintf("testnet was already started (PID %d)", e.PID)
}

func (e *StartError) Suggestion() string {
	return "Terminate the running testnet before starting it again"
}

func (e *StartError) ErrorType() string { return "start" }
func (e *StartError) IsRetryable() bool { return false }
