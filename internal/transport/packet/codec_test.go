package packet

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/knet-garden-go/internal/transport/compress"
	"github.com/lk2023060901/knet-garden-go/pkg/util/merr"
)

func newTestCodec(t *testing.T) (*Codec, *compress.Registry) {
	reg := compress.NewRegistry()
	require.NoError(t, reg.Init())
	return NewCodec(reg), reg
}

func compressiblePayload() []byte {
	return bytes.Repeat([]byte("knet-garden transport payload "), 64)
}

func TestRoundTripRaw(t *testing.T) {
	c, reg := newTestCodec(t)
	h := compress.NewHandle()
	require.NoError(t, reg.Configure(h, compress.Config{Model: "none"}))

	payload := []byte("hello knet")
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, h, payload))

	// model 字节为 0。
	require.Equal(t, byte(0), buf.Bytes()[4])

	out, err := c.Decode(&buf, h)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestRoundTripCompressed(t *testing.T) {
	c, reg := newTestCodec(t)
	tx, rx := compress.NewHandle(), compress.NewHandle()
	require.NoError(t, reg.Configure(tx, compress.Config{Model: "zstd", Level: 3}))

	payload := compressiblePayload()
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, tx, payload))

	// 压缩生效：帧应明显小于原文，model 字节为 zstd。
	require.Less(t, buf.Len(), len(payload))
	require.Equal(t, byte(7), buf.Bytes()[4])

	out, err := c.Decode(&buf, rx)
	require.NoError(t, err)
	require.Equal(t, payload, out)

	reg.Fini(tx)
	reg.Fini(rx)
}

func TestSubThresholdStaysRaw(t *testing.T) {
	c, reg := newTestCodec(t)
	h := compress.NewHandle()
	require.NoError(t, reg.Configure(h, compress.Config{Model: "zstd", Level: 3, Threshold: 1024}))

	payload := bytes.Repeat([]byte("a"), 512)
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, h, payload))

	require.Equal(t, byte(0), buf.Bytes()[4])
	out, err := c.Decode(&buf, h)
	require.NoError(t, err)
	require.Equal(t, payload, out)
	reg.Fini(h)
}

func TestIncompressibleStaysRaw(t *testing.T) {
	c, reg := newTestCodec(t)
	h := compress.NewHandle()
	require.NoError(t, reg.Configure(h, compress.Config{Model: "zlib", Level: 9, Threshold: 1}))

	// 已经压缩过的数据再压缩只会变大，帧必须保持原文。
	pre, err := reg.Compress(h, nil, compressiblePayload())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, h, pre))
	require.Equal(t, byte(0), buf.Bytes()[4])

	out, err := c.Decode(&buf, h)
	require.NoError(t, err)
	require.Equal(t, pre, out)
	reg.Fini(h)
}

func TestEncodeTooLarge(t *testing.T) {
	c, reg := newTestCodec(t)
	h := compress.NewHandle()
	require.NoError(t, reg.Configure(h, compress.Config{Model: "none"}))

	var buf bytes.Buffer
	err := c.Encode(&buf, h, make([]byte, compress.MaxPacketSize+1))
	require.ErrorIs(t, err, merr.ErrPacketTooLarge)
}

func TestDecodeRejectsOversizedFrame(t *testing.T) {
	c, _ := newTestCodec(t)
	h := compress.NewHandle()

	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(compress.MaxPacketSize)+2)
	_, err := c.Decode(bytes.NewReader(hdr[:]), h)
	require.ErrorIs(t, err, merr.ErrPacketTooLarge)
}

func TestDecodeRejectsZeroLength(t *testing.T) {
	c, _ := newTestCodec(t)
	h := compress.NewHandle()

	var hdr [headerSize]byte
	_, err := c.Decode(bytes.NewReader(hdr[:]), h)
	require.ErrorIs(t, err, merr.ErrFrameInvalid)
}

func TestDecodeUnknownModel(t *testing.T) {
	c, _ := newTestCodec(t)
	h := compress.NewHandle()

	frame := []byte{0, 0, 0, 2, 250, 0xff}
	_, err := c.Decode(bytes.NewReader(frame), h)
	require.ErrorIs(t, err, merr.ErrCompressModelNotFound)
}

func TestDecodeNotBuiltInModel(t *testing.T) {
	c, _ := newTestCodec(t)
	h := compress.NewHandle()

	frame := []byte{0, 0, 0, 2, 6, 0xff}
	_, err := c.Decode(bytes.NewReader(frame), h)
	require.ErrorIs(t, err, merr.ErrCompressModelNotBuiltIn)
}

func TestDecodeCorruptBody(t *testing.T) {
	c, _ := newTestCodec(t)
	h := compress.NewHandle()

	body := []byte("definitely not zlib")
	frame := make([]byte, 0, headerSize+len(body))
	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(body))+1)
	hdr[4] = 1
	frame = append(frame, hdr[:]...)
	frame = append(frame, body...)

	_, err := c.Decode(bytes.NewReader(frame), h)
	require.ErrorIs(t, err, merr.ErrCompressCodecFailed)
}
