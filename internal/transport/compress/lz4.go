package compress

import (
	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"
)

// lz4Model 基于 github.com/pierrec/lz4/v4 的块压缩实现（快速路径）。
//
// 块格式不携带原文长度，解压目标缓冲区按 dataBufSize 预留，
// 与报文大小上限保持一致。
type lz4Model struct{}

var _ Model = lz4Model{}

func (lz4Model) LoadLib() error {
	return nil
}

func (lz4Model) UnloadLib() {}

// ValidateLevel 校验加速级别。
// 块接口不暴露加速参数，级别仅做范围校验以保持配置兼容。
func (lz4Model) ValidateLevel(level int) bool {
	return level >= 1 && level <= 9
}

func (lz4Model) Compress(_ *Handle, dst, src []byte, _ int) ([]byte, error) {
	var c lz4.Compressor
	return lz4CompressBlock(dst, src, c.CompressBlock)
}

func (lz4Model) Decompress(_ *Handle, dst, src []byte) ([]byte, error) {
	return lz4DecompressBlock(dst, src)
}

// lz4hcModel 为 lz4 的高压缩比变体，共用块格式，两端可互通。
type lz4hcModel struct{}

var _ Model = lz4hcModel{}

// lz4hcLevels 将配置级别 1–9 映射到 lz4 的 HC 级别。
var lz4hcLevels = [...]lz4.CompressionLevel{
	1: lz4.Level1,
	2: lz4.Level2,
	3: lz4.Level3,
	4: lz4.Level4,
	5: lz4.Level5,
	6: lz4.Level6,
	7: lz4.Level7,
	8: lz4.Level8,
	9: lz4.Level9,
}

func (lz4hcModel) LoadLib() error {
	return nil
}

func (lz4hcModel) UnloadLib() {}

func (lz4hcModel) ValidateLevel(level int) bool {
	return level >= 1 && level < len(lz4hcLevels)
}

func (lz4hcModel) Compress(_ *Handle, dst, src []byte, level int) ([]byte, error) {
	if level < 1 || level >= len(lz4hcLevels) {
		return nil, errors.Newf("invalid lz4hc level %d", level)
	}
	c := lz4.CompressorHC{Level: lz4hcLevels[level]}
	return lz4CompressBlock(dst, src, c.CompressBlock)
}

func (lz4hcModel) Decompress(_ *Handle, dst, src []byte) ([]byte, error) {
	return lz4DecompressBlock(dst, src)
}

func lz4CompressBlock(dst, src []byte, compress func(src, dst []byte) (int, error)) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(src))
	if cap(dst) < bound {
		dst = make([]byte, bound)
	} else {
		dst = dst[:bound]
	}
	n, err := compress(src, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// 块接口约定：返回 0 表示数据不可压缩。
		return nil, errors.New("lz4: incompressible data")
	}
	return dst[:n], nil
}

func lz4DecompressBlock(dst, src []byte) ([]byte, error) {
	if cap(dst) < dataBufSize {
		dst = make([]byte, dataBufSize)
	} else {
		dst = dst[:dataBufSize]
	}
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
