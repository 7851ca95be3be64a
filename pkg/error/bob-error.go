/*
Copyright © 2022 - 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package error

import "errors"

// BobError is our custom error to pass around exit codes in the error
type BobError struct {
	err   string
	code  int
	cause error
}

func (e *BobError) Error() string {
	return e.err
}

func (e *BobError) ExitCode() int {
	return e.code
}

// Unwrap returns the error this one was generated from, if any
func (e *BobError) Unwrap() error {
	return e.cause
}

// Is matches any BobError carrying the same exit code
func (e *BobError) Is(target error) bool {
	t, ok := target.(*BobError)
	if !ok {
		return false
	}
	return t.code == e.code
}

// NewFromError generates a BobError from an existing error,
// maintaining its error message
func NewFromError(err error, code int) error {
	if err == nil {
		return nil
	}

	errorMsg := ""
	if err.Error() != "" {
		errorMsg = err.Error()
	}
	return &BobError{err: errorMsg, code: code, cause: err}
}

// New generates a BobError from a string
func New(err string, code int) error {
	return &BobError{err: err, code: code}
}

// Kind returns an error value only useful as errors.Is target for the given code
func Kind(code int) error {
	return &BobError{code: code}
}

// Code returns the exit code carried by err, Unknown if none
func Code(err error) int {
	var bErr *BobError
	if errors.As(err, &bErr) {
		return bErr.code
	}
	return Unknown
}
