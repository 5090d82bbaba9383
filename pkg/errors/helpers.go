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

import (
	"errors"
	"fmt"
)

// Wrap annotates err with message. It returns nil when err is nil.
//
//	if err := pidFile.Create(pid); err != nil {
//	    return errors.Wrap(err, "recording wrapper PID")
//	}
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsRetryable reports whether an ErrorClassifier in err's chain says the
// operation may succeed if repeated.
func IsRetryable(err error) bool {
	var classified ErrorClassifier
	return errors.As(err, &classified) && classified.IsRetryable()
}

// TypeOf returns the category of the first ErrorClassifier in err's chain,
// or "" when there is none.
func TypeOf(err error) string {
	var classified ErrorClassifier
	if !errors.As(err, &classified) {
		return ""
	}
	return classified.ErrorType()
}

// SuggestionFor walks err's chain and returns the suggestion of the first
// UserVisibleError it finds, or "" when there is none.
func SuggestionFor(err error) string {
	var userErr UserVisibleError
	if !errors.As(err, &userErr) || !userErr.IsUserVisible() {
		return ""
	}
	return userErr.Suggestion()
}
