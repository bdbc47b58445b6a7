// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Transport related
	ErrPacketTooLarge = newKnetError("packet exceeds max packet size", 100, false)
	ErrFrameInvalid   = newKnetError("invalid frame", 101, false)

	// Compress related
	ErrCompressModelNotFound     = newKnetError("compress model not found", 200, false)
	ErrCompressModelNotBuiltIn   = newKnetError("compress model support not built in", 201, false)
	ErrCompressLevelInvalid      = newKnetError("compress level not supported", 202, false)
	ErrCompressThresholdTooLarge = newKnetError("compress threshold too large", 203, false)
	// ErrCompressRateLimited indicates the library load path is inside the
	// cool-down window after a previous load failure. The decompress caller
	// may drop the packet and retry later, hence retriable.
	ErrCompressRateLimited   = newKnetError("compress library load rate limited", 204, true)
	ErrCompressLibLoadFailed = newKnetError("unable to load compress library", 205, false)
	ErrCompressInitFailed    = newKnetError("unable to init compress model", 206, false)
	ErrCompressCodecFailed   = newKnetError("compress codec operation failed", 207, false)
	ErrCompressTooManyModels = newKnetError("too many compress models defined", 208, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to knetError
	errUnexpected = newKnetError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*knetError)

func WithDetail(detail string) errorOption {
	return func(err *knetError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *knetError) {
		err.errType = etype
	}
}

type knetError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newKnetError(msg string, code int32, retriable bool, options ...errorOption) knetError {
	err := knetError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e knetError) code() int32 {
	return e.errCode
}

func (e knetError) Error() string {
	return e.msg
}

func (e knetError) Detail() string {
	return e.detail
}

func (e knetError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(knetError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
