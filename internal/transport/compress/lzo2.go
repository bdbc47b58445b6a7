package compress

import (
	"github.com/woozymasta/lzo"
)

// lzo2Model 基于 github.com/woozymasta/lzo 的 LZO1X 实现。
//
// 级别 1 使用快速的 LZO1X-1，级别 2–9 使用 LZO1X-999，
// 级别越高搜索深度越大。两者共用同一解压入口。
type lzo2Model struct{}

var _ Model = lzo2Model{}

func (lzo2Model) LoadLib() error {
	return nil
}

func (lzo2Model) UnloadLib() {}

func (lzo2Model) ValidateLevel(level int) bool {
	return level >= 1 && level <= 9
}

func (lzo2Model) Compress(_ *Handle, _ []byte, src []byte, level int) ([]byte, error) {
	if level <= 1 {
		return lzo.Compress(src, nil)
	}
	return lzo.Compress1X999Level(src, level)
}

func (lzo2Model) Decompress(_ *Handle, _ []byte, src []byte) ([]byte, error) {
	return lzo.Decompress(src, lzo.DefaultDecompressOptions(dataBufSize))
}
