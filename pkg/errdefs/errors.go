/*
 * Copyright 2023 nebuly.com.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errdefs

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument     ErrorCode = "invalid-argument"
	CodeUpstreamUnavailable ErrorCode = "upstream-unavailable"
	CodeMalformedSpec       ErrorCode = "malformed-specification"
	CodeInternalConsistency ErrorCode = "internal-consistency"
	CodeBindingSubmission   ErrorCode = "binding-submission"
	CodeNotFound            ErrorCode = "not-found"
)

var (
	InvalidArgumentErr     = errorImpl{code: CodeInvalidArgument}
	UpstreamUnavailableErr = errorImpl{code: CodeUpstreamUnavailable}
	MalformedSpecErr       = errorImpl{code: CodeMalformedSpec}
	InternalConsistencyErr = errorImpl{code: CodeInternalConsistency}
	BindingSubmissionErr   = errorImpl{code: CodeBindingSubmission}
	NotFoundErr            = errorImpl{code: CodeNotFound}
)

// Error is the failure type returned by every exported operation of the module.
// Callers branch on Code() rather than on the message.
type Error interface {
	error
	Code() ErrorCode
	// IsRetryable reports whether repeating the same call may succeed.
	// Only failures of a remote service qualify.
	IsRetryable() bool
}

type errorImpl struct {
	code ErrorCode
	err  error
}

func (e errorImpl) Error() string {
	if e.err == nil {
		return fmt.Sprintf("[code: %s]", e.code)
	}
	return fmt.Sprintf("[code: %s  err: %s]", e.code, e.err.Error())
}

func (e errorImpl) Code() ErrorCode {
	return e.code
}

func (e errorImpl) IsRetryable() bool {
	return e.code == CodeUpstreamUnavailable
}

func (e errorImpl) Unwrap() error {
	return e.err
}

// Is makes errors.Is(err, errdefs.NotFoundErr) match on the code only.
func (e errorImpl) Is(target error) bool {
	t, ok := target.(errorImpl)
	if !ok {
		return false
	}
	return t.err == nil && t.code == e.code
}

func (e errorImpl) Errorf(format string, args ...any) Error {
	e.err = fmt.Errorf(format, args...)
	return e
}

func (e errorImpl) Wrap(err error) Error {
	e.err = err
	return e
}

// CodeOf returns the code of the first Error found in the chain of err,
// or an empty code if err carries none.
func CodeOf(err error) ErrorCode {
	var e Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return ""
}

func IsInvalidArgument(err error) bool {
	return CodeOf(err) == CodeInvalidArgument
}

func IsUpstreamUnavailable(err error) bool {
	return CodeOf(err) == CodeUpstreamUnavailable
}

func IsMalformedSpec(err error) bool {
	return CodeOf(err) == CodeMalformedSpec
}

func IsInternalConsistency(err error) bool {
	return CodeOf(err) == CodeInternalConsistency
}

func IsBindingSubmission(err error) bool {
	return CodeOf(err) == CodeBindingSubmission
}

func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

func IgnoreNotFound(err error) error {
	if IsNotFound(err) {
		return nil
	}
	return err
}

func IsRetryable(err error) bool {
	var e Error
	if errors.As(err, &e) {
		return e.IsRetryable()
	}
	return false
}
