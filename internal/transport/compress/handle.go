package compress

import (
	"github.com/lk2023060901/knet-garden-go/pkg/util/typeutil"
)

// Handle 承载一条链路的压缩配置与各模型的私有状态。
//
// 配置字段只在 Configure 中写入；intData 与 owned 由 Registry
// 在自身的锁内维护。同一 Handle 上的 Compress/Decompress 可以
// 并发调用，但 Configure 与它们的并发由调用方负责串行化。
type Handle struct {
	model     ModelID
	level     int
	threshold uint32

	// intData 按模型 ID 存放各模型在本 Handle 上的私有状态。
	intData [maxCompressMethods]any

	// owned 记录本 Handle 已经初始化过的模型，
	// Fini 只释放这里登记过的引用。
	owned typeutil.Set[ModelID]
}

// NewHandle 创建一个未配置的 Handle，默认模型为 none。
func NewHandle() *Handle {
	return &Handle{
		threshold: DefaultThreshold,
		owned:     typeutil.NewSet[ModelID](),
	}
}

// Model 返回当前配置的压缩模型 ID。
func (h *Handle) Model() ModelID {
	return h.model
}

// Level 返回当前配置的压缩级别。
func (h *Handle) Level() int {
	return h.level
}

// Threshold 返回触发压缩的最小报文字节数。
func (h *Handle) Threshold() uint32 {
	return h.threshold
}
