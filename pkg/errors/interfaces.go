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

package errors

// UserVisibleError is implemented by errors that carry a message and an
// actionable suggestion for people running the testnet CLI.
type UserVisibleError interface {
	error

	// IsUserVisible reports whether the error should be shown to users.
	IsUserVisible() bool

	// UserMessage returns a message free of implementation detail.
	UserMessage() string

	// Suggestion returns guidance for resolving the error, or "".
	Suggestion() string
}

// ErrorClassifier lets callers branch on an error category without
// matching concrete types.
type ErrorClassifier interface {
	error

	// ErrorType returns the error category, e.g. "validation", "config",
	// "timeout" or "start".
	ErrorType() string

	// IsRetryable reports whether repeating the operation may succeed.
	IsRetryable() bool
}
