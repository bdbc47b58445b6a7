// Package packet 实现带压缩标记的报文帧编解码。
//
// 帧格式：
//
//	+----------------+-------+----------------+
//	| length (4B BE) | model |      body      |
//	+----------------+-------+----------------+
//
// length 为 model 与 body 的总长度。model 为压缩模型 ID，
// 0 表示 body 未压缩。
package packet

import (
	"encoding/binary"
	"io"

	"go.uber.org/zap"

	"github.com/lk2023060901/knet-garden-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/knet-garden-go/internal/transport/compress"
	"github.com/lk2023060901/knet-garden-go/pkg/log"
	"github.com/lk2023060901/knet-garden-go/pkg/util/merr"
)

const headerSize = 5

// Codec 负责报文帧的编解码，压缩行为由 Handle 的配置决定。
type Codec struct {
	log.Binder

	reg *compress.Registry
}

// NewCodec 创建一个使用 reg 做压缩调度的 Codec。
func NewCodec(reg *compress.Registry) *Codec {
	c := &Codec{reg: reg}
	c.SetLogger(log.With(
		log.FieldModule("transport"),
		log.FieldComponent("packet"),
	))
	return c
}

// Encode 将 payload 按 h 的压缩配置编码成一帧写入 w。
//
// 只有当压缩后的结果严格小于原文时才发送压缩形式，
// 否则以模型 0 发送原文；压缩失败同样回退为原文发送。
func (c *Codec) Encode(w io.Writer, h *compress.Handle, payload []byte) error {
	if len(payload) > compress.MaxPacketSize {
		return merr.WrapErrPacketTooLarge(len(payload), compress.MaxPacketSize, "encode")
	}

	model := compress.ModelID(0)
	body := payload

	if h.Model() != 0 && uint32(len(payload)) >= h.Threshold() {
		scratch := bytebuffer.Get()
		defer bytebuffer.Put(scratch)

		out, err := c.reg.Compress(h, scratch.B, payload)
		switch {
		case err != nil:
			c.Logger().Warn("compress failed, sending raw",
				zap.Uint8("model", uint8(h.Model())), zap.Error(err))
		case len(out) < len(payload):
			model = h.Model()
			body = out
		}
	}

	frame := bytebuffer.Get()
	defer bytebuffer.Put(frame)

	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(body))+1)
	hdr[4] = byte(model)

	frame.B = append(frame.B[:0], hdr[:]...)
	frame.B = append(frame.B, body...)

	_, err := w.Write(frame.B)
	return err
}

// Decode 从 r 读取一帧并返回解码后的 payload。
//
// 模型 ID 来自网络输入，解压路径会应用库加载的失败冷却。
// 超长帧在分配 body 缓冲区之前就被拒绝。
func (c *Codec) Decode(r io.Reader, h *compress.Handle) ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(hdr[:4])
	if length == 0 {
		return nil, merr.WrapErrFrameInvalid("zero-length frame", "decode")
	}
	bodyLen := int(length) - 1
	if bodyLen > compress.MaxPacketSize {
		return nil, merr.WrapErrPacketTooLarge(bodyLen, compress.MaxPacketSize, "decode")
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	model := compress.ModelID(hdr[4])
	if model == 0 {
		return body, nil
	}

	plain, err := c.reg.Decompress(h, model, nil, body)
	if err != nil {
		c.Logger().Warn("decompress failed",
			zap.Uint8("model", uint8(model)), zap.Error(err))
		return nil, err
	}
	if len(plain) > compress.MaxPacketSize {
		return nil, merr.WrapErrPacketTooLarge(len(plain), compress.MaxPacketSize, "decode")
	}
	return plain, nil
}
