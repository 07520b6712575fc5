// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tool

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a required credential that was not configured.
type ConfigurationError struct {
	// Variable is the name of the missing environment variable.
	Variable string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Variable)
}

// ValidationError reports malformed tool input.
// It is always raised before any network activity.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RemoteServiceError reports a failure of a remote dependency: a non-2xx
// status, an empty capability list, or a failed invocation.
type RemoteServiceError struct {
	Service    string
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.StatusCode != 0 {
		msg = fmt.Sprintf("%d %s", e.StatusCode, e.Status)
	}
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Service == "" {
		return msg
	}
	return fmt.Sprintf("%s error: %s", e.Service, msg)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsRemoteServiceError reports whether err wraps a RemoteServiceError.
func IsRemoteServiceError(err error) bool {
	var target *RemoteServiceError
	return errors.As(err, &target)
}
