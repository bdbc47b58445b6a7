// Package compress 实现传输层的压缩模型调度：
// 固定的模型表、按需加载的生命周期管理，以及压缩/解压的统一入口。
package compress

import (
	"time"
)

const (
	// MaxPacketSize 为单个报文的最大字节数。
	MaxPacketSize = 65536

	// dataBufSize 为压缩/解压输出缓冲区的上限。
	// 压缩算法在极端输入下可能产生比原文更大的输出，预留一倍余量。
	dataBufSize = MaxPacketSize * 2

	// maxCompressMethods 为模型表的容量上限，ID 255 保留为终止标记。
	maxCompressMethods = 255

	// DefaultThreshold 为未显式配置时的压缩阈值（字节）。
	DefaultThreshold = 100

	// loadFailureWindow 为库加载失败后的冷却时间。
	// 冷却期内解压路径拒绝再次尝试加载，防止恶意报文反复触发加载。
	loadFailureWindow = 10 * time.Second

	// terminatorID 为模型表终止标记的 ID，永远不会出现在线上报文中。
	terminatorID ModelID = 255
)

// ModelID 为压缩模型的线上标识，以单字节随报文传输。
type ModelID uint8

// Model 抽象一个压缩模型的后端实现。
//
// 约定：
//   - LoadLib 幂等，重复调用不产生副作用；
//   - Compress/Decompress 可并发调用，需要 per-handle 状态的实现
//     从 h 中取（见 handleInitializer）；
//   - 输出不得超过 dataBufSize 字节。
type Model interface {
	// LoadLib 准备模型依赖的底层实现。
	LoadLib() error

	// UnloadLib 释放 LoadLib 占用的资源。
	UnloadLib()

	// ValidateLevel 判断压缩级别是否在模型支持的范围内。
	ValidateLevel(level int) bool

	// Compress 以指定级别将 src 压缩到 dst。
	Compress(h *Handle, dst, src []byte, level int) (packet []byte, err error)

	// Decompress 将压缩数据 src 解压到 dst。
	Decompress(h *Handle, dst, src []byte) (plain []byte, err error)
}

// handleInitializer 管理模型在单个 Handle 上的私有状态。
//
// 不需要私有状态的模型使用 markerInitializer，它只在 Handle 上
// 打标记，用于生命周期引用计数；永远不使用 nil。
type handleInitializer interface {
	isInit(h *Handle, id ModelID) bool
	init(h *Handle, id ModelID) error
	fini(h *Handle, id ModelID)
}

// markerInitializer 是无私有状态模型的占位实现。
type markerInitializer struct{}

type initMarker struct{}

func (markerInitializer) isInit(h *Handle, id ModelID) bool {
	return h.intData[id] != nil
}

func (markerInitializer) init(h *Handle, id ModelID) error {
	h.intData[id] = initMarker{}
	return nil
}

func (markerInitializer) fini(h *Handle, id ModelID) {
	h.intData[id] = nil
}

// moduleEntry 为模型表中的一行。
type moduleEntry struct {
	name    string
	id      ModelID
	builtIn bool
	model   Model
	init    handleInitializer
}

// builtinModules 为固定的模型表。
//
// ID 随报文传输，语义一经发布不可更改：只允许在终止标记之前
// 追加新模型，严禁重排或复用已有 ID。bzip2 的表项保留用于
// 线上兼容，本构建不提供实现。
var builtinModules = []moduleEntry{
	{name: "none", id: 0, builtIn: true, model: noneModel{}, init: markerInitializer{}},
	{name: "zlib", id: 1, builtIn: true, model: zlibModel{}, init: markerInitializer{}},
	{name: "lz4", id: 2, builtIn: true, model: lz4Model{}, init: markerInitializer{}},
	{name: "lz4hc", id: 3, builtIn: true, model: lz4hcModel{}, init: markerInitializer{}},
	{name: "lzo2", id: 4, builtIn: true, model: lzo2Model{}, init: markerInitializer{}},
	{name: "lzma", id: 5, builtIn: true, model: lzmaModel{}, init: markerInitializer{}},
	{name: "bzip2", id: 6, builtIn: false},
	{name: "zstd", id: 7, builtIn: true, model: zstdModel{}, init: zstdInitializer{}},
	{name: "s2", id: 8, builtIn: true, model: s2Model{}, init: markerInitializer{}},
	{name: "", id: terminatorID},
}
