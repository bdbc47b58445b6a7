package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// zlibModel 基于 github.com/klauspost/compress/zlib 的流式实现。
// 级别 0 为不压缩存储，9 为最高压缩比。
type zlibModel struct{}

var _ Model = zlibModel{}

func (zlibModel) LoadLib() error {
	return nil
}

func (zlibModel) UnloadLib() {}

func (zlibModel) ValidateLevel(level int) bool {
	return level >= zlib.NoCompression && level <= zlib.BestCompression
}

func (zlibModel) Compress(_ *Handle, dst, src []byte, level int) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	w, err := zlib.NewWriterLevel(buf, level)
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

func (zlibModel) Decompress(_ *Handle, dst, src []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	buf := bytes.NewBuffer(dst[:0])
	// 多读一个字节以区分“恰好达到上限”和“超出上限”。
	if _, err = io.Copy(buf, io.LimitReader(zr, dataBufSize+1)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
