package compress

import (
	"github.com/klauspost/compress/s2"
)

// s2Model 基于 github.com/klauspost/compress/s2 的块压缩实现。
// 级别 0/1/2 分别对应 默认/better/best 三档编码。
type s2Model struct{}

var _ Model = s2Model{}

func (s2Model) LoadLib() error {
	return nil
}

func (s2Model) UnloadLib() {}

func (s2Model) ValidateLevel(level int) bool {
	return level >= 0 && level <= 2
}

func (s2Model) Compress(_ *Handle, dst, src []byte, level int) ([]byte, error) {
	bound := s2.MaxEncodedLen(len(src))
	if cap(dst) < bound {
		dst = make([]byte, bound)
	} else {
		dst = dst[:bound]
	}

	switch level {
	case 2:
		return s2.EncodeBest(dst, src), nil
	case 1:
		return s2.EncodeBetter(dst, src), nil
	default:
		return s2.Encode(dst, src), nil
	}
}

func (s2Model) Decompress(_ *Handle, dst, src []byte) ([]byte, error) {
	return s2.Decode(dst[:0], src)
}
