package compress

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/knet-garden-go/pkg/util/hardware"
	"github.com/lk2023060901/knet-garden-go/pkg/util/merr"
)

// zstdModel 基于 github.com/klauspost/compress/zstd 的实现。
//
// zstd 的 encoder/decoder 是有状态对象，由 zstdInitializer 按
// Handle 创建并存放在 Handle 的私有状态中，不使用全局单例，
// 避免不同链路之间的隐式耦合。
type zstdModel struct{}

var _ Model = zstdModel{}

func (zstdModel) LoadLib() error {
	return nil
}

func (zstdModel) UnloadLib() {}

func (zstdModel) ValidateLevel(level int) bool {
	return level >= 1 && level <= 22
}

func (zstdModel) Compress(h *Handle, dst, src []byte, level int) ([]byte, error) {
	s, err := zstdSessionOf(h)
	if err != nil {
		return nil, err
	}
	enc, err := s.encoder(level)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(src, dst[:0]), nil
}

func (zstdModel) Decompress(h *Handle, dst, src []byte) ([]byte, error) {
	s, err := zstdSessionOf(h)
	if err != nil {
		return nil, err
	}
	return s.dec.DecodeAll(src, dst[:0])
}

func zstdSessionOf(h *Handle) (*zstdSession, error) {
	s, ok := h.intData[zstdModelID].(*zstdSession)
	if !ok || s == nil {
		return nil, merr.WrapErrCompressInitFailed(nil, "zstd", "session not initialized")
	}
	return s, nil
}

const zstdModelID ModelID = 7

// zstdSession 为单个 Handle 上的 zstd 私有状态。
//
// encoder 的级别在创建时固定，而配置级别可随 Configure 变化，
// 因此按级别惰性创建并缓存。EncodeAll/DecodeAll 本身可并发调用。
type zstdSession struct {
	mu   sync.Mutex
	encs map[int]*zstd.Encoder
	dec  *zstd.Decoder
}

func newZstdSession() (*zstdSession, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &zstdSession{
		encs: make(map[int]*zstd.Encoder),
		dec:  dec,
	}, nil
}

func (s *zstdSession) encoder(level int) (*zstd.Encoder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enc, ok := s.encs[level]; ok {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithZeroFrames(true),
		zstd.WithEncoderConcurrency(hardware.GetCPUNum()),
	)
	if err != nil {
		return nil, err
	}
	s.encs[level] = enc
	return enc, nil
}

func (s *zstdSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for level, enc := range s.encs {
		_ = enc.Close()
		delete(s.encs, level)
	}
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
}

// zstdInitializer 管理 zstdSession 在 Handle 上的生命周期。
type zstdInitializer struct{}

var _ handleInitializer = zstdInitializer{}

func (zstdInitializer) isInit(h *Handle, id ModelID) bool {
	s, ok := h.intData[id].(*zstdSession)
	return ok && s != nil
}

func (zstdInitializer) init(h *Handle, id ModelID) error {
	s, err := newZstdSession()
	if err != nil {
		return err
	}
	h.intData[id] = s
	return nil
}

func (zstdInitializer) fini(h *Handle, id ModelID) {
	if s, ok := h.intData[id].(*zstdSession); ok && s != nil {
		s.close()
	}
	h.intData[id] = nil
}
