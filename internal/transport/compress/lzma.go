package compress

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// lzmaModel 基于 github.com/ulikunitz/xz/lzma 的实现。
// 级别 0–9 对应 xz 预设的字典容量，级别越高压缩比越高、内存占用越大。
type lzmaModel struct{}

var _ Model = lzmaModel{}

// lzmaDictCaps 将级别映射到字典容量（字节）。
var lzmaDictCaps = [10]int{
	1 << 18, // 0: 256 KiB
	1 << 20, // 1: 1 MiB
	1 << 21, // 2: 2 MiB
	1 << 22, // 3: 4 MiB
	1 << 22, // 4: 4 MiB
	1 << 23, // 5: 8 MiB
	1 << 23, // 6: 8 MiB
	1 << 24, // 7: 16 MiB
	1 << 25, // 8: 32 MiB
	1 << 26, // 9: 64 MiB
}

func (lzmaModel) LoadLib() error {
	return nil
}

func (lzmaModel) UnloadLib() {}

func (lzmaModel) ValidateLevel(level int) bool {
	return level >= 0 && level < len(lzmaDictCaps)
}

func (lzmaModel) Compress(_ *Handle, dst, src []byte, level int) ([]byte, error) {
	if level < 0 {
		level = 0
	}
	if level >= len(lzmaDictCaps) {
		level = len(lzmaDictCaps) - 1
	}

	buf := bytes.NewBuffer(dst[:0])
	cfg := lzma.WriterConfig{DictCap: lzmaDictCaps[level]}
	w, err := cfg.NewWriter(buf)
	if err != nil {
		return nil, err
	}
	if _, err = w.Write(src); err != nil {
		w.Close()
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lzmaModel) Decompress(_ *Handle, dst, src []byte) ([]byte, error) {
	lr, err := lzma.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(dst[:0])
	// 多读一个字节以区分“恰好达到上限”和“超出上限”。
	if _, err = io.Copy(buf, io.LimitReader(lr, dataBufSize+1)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
