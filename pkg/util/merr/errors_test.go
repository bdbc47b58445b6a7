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
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) SetupSuite() {
}

func (s *ErrSuite) TestCode() {
	err := WrapErrCompressModelNotFound("rot13")
	sameCodeErr := newKnetError("new error", err.(knetError).errCode, false)
	diffCodeErr := newKnetError("new error", err.(knetError).errCode+1, false)

	s.ErrorIs(err, sameCodeErr)
	s.NotErrorIs(err, diffCodeErr)
}

func (s *ErrSuite) TestWrap() {
	// Transport related
	s.ErrorIs(WrapErrPacketTooLarge(70000, 65536, "framer rejects"), ErrPacketTooLarge)
	s.ErrorIs(WrapErrFrameInvalid("truncated header", "decode"), ErrFrameInvalid)

	// Compress related
	s.ErrorIs(WrapErrCompressModelNotFound("rot13", "configure"), ErrCompressModelNotFound)
	s.ErrorIs(WrapErrCompressModelNotBuiltIn("bzip2", "configure"), ErrCompressModelNotBuiltIn)
	s.ErrorIs(WrapErrCompressLevelInvalid("zlib", 42, "configure"), ErrCompressLevelInvalid)
	s.ErrorIs(WrapErrCompressThresholdTooLarge(70000, 65536, "configure"), ErrCompressThresholdTooLarge)
	s.ErrorIs(WrapErrCompressRateLimited("lz4", "decompress"), ErrCompressRateLimited)
	s.ErrorIs(WrapErrCompressLibLoadFailed(errors.New("missing symbol"), "lzo2"), ErrCompressLibLoadFailed)
	s.ErrorIs(WrapErrCompressInitFailed(errors.New("encoder init"), "zstd"), ErrCompressInitFailed)
	s.ErrorIs(WrapErrCompressCodecFailed(errors.New("corrupt input"), "lzma", "decompress"), ErrCompressCodecFailed)
	s.ErrorIs(WrapErrCompressTooManyModels(256, 255), ErrCompressTooManyModels)
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)

	err = Combine(err, nil)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrCompressCodecFailed(nil, "zlib", "compress"), WrapErrCompressModelNotFound("zlib"))
	s.Equal(ErrCompressModelNotFound.errCode, Code(err))
}

func (s *ErrSuite) TestIsRetryable() {
	s.True(IsRetryableErr(ErrCompressRateLimited))
	s.False(IsRetryableErr(ErrCompressLibLoadFailed))
	s.False(IsRetryableErr(errors.New("plain")))
}

func (s *ErrSuite) TestContextErrors() {
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.True(IsCanceledOrTimeout(context.Canceled))
	s.True(IsCanceledOrTimeout(context.DeadlineExceeded))
	s.False(IsCanceledOrTimeout(ErrCompressRateLimited))
}

func (s *ErrSuite) TestUnexpectedCode() {
	s.Equal(errUnexpected.errCode, Code(errors.New("not a knet error")))
	s.Equal(int32(0), Code(nil))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
