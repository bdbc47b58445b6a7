package compress

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/knet-garden-go/pkg/log"
	"github.com/lk2023060901/knet-garden-go/pkg/util/merr"
)

// Registry 持有模型表与所有模型的加载状态，是压缩子系统的唯一入口。
//
// 全部共享状态由一把读写锁保护：压缩/解压热路径走读锁，
// 库加载、初始化与卸载走写锁。
type Registry struct {
	mu sync.RWMutex

	entries  []moduleEntry
	states   []modelState
	maxModel ModelID

	// lastLoadFailure 为最近一次库加载失败的时间，所有模型共享。
	// 解压路径在冷却期内拒绝再次加载。
	lastLoadFailure time.Time

	// now 可在测试中注入，替换真实时钟。
	now func() time.Time

	logger *log.MLogger
}

// modelState 为单个模型的全局加载状态。
type modelState struct {
	// loaded 表示底层实现是否就绪。
	loaded bool
	// libref 为持有该模型的 Handle 计数，归零时卸载。
	libref int
}

// NewRegistry 基于内置模型表创建 Registry。
// 使用前必须先调用 Init。
func NewRegistry() *Registry {
	return newRegistry(builtinModules, time.Now)
}

func newRegistry(entries []moduleEntry, now func() time.Time) *Registry {
	return &Registry{
		entries: entries,
		now:     now,
		logger: log.With(
			log.FieldModule("transport"),
			log.FieldComponent("compress"),
		),
	}
}

// Init 扫描模型表，计算并缓存最大模型 ID，并重置失败冷却时间。
func (r *Registry) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	maxID := ModelID(0)
	for i := range r.entries {
		if r.entries[i].id == terminatorID {
			break
		}
		if r.entries[i].id > maxID {
			maxID = r.entries[i].id
		}
		count++
	}
	if count >= maxCompressMethods {
		return merr.WrapErrCompressTooManyModels(count, maxCompressMethods-1)
	}

	r.maxModel = maxID
	r.states = make([]modelState, int(maxID)+1)
	r.lastLoadFailure = time.Time{}

	r.logger.Info("compress registry initialized",
		zap.Int("models", count),
		zap.Uint8("maxModel", uint8(maxID)))
	return nil
}

// MaxModel 返回表中最大的模型 ID。
func (r *Registry) MaxModel() ModelID {
	return r.maxModel
}

// resolve 按名称查找模型表项。
func (r *Registry) resolve(name string) (*moduleEntry, error) {
	for i := range r.entries {
		if r.entries[i].id == terminatorID {
			break
		}
		if r.entries[i].name == name {
			return &r.entries[i], nil
		}
	}
	return nil, merr.WrapErrCompressModelNotFound(name)
}

// entryByID 按 ID 查找模型表项，不存在时返回 nil。
func (r *Registry) entryByID(id ModelID) *moduleEntry {
	for i := range r.entries {
		if r.entries[i].id == terminatorID {
			break
		}
		if r.entries[i].id == id {
			return &r.entries[i]
		}
	}
	return nil
}

// isUsable 判断模型是否存在且编译进了本构建。
func (r *Registry) isUsable(id ModelID) bool {
	entry := r.entryByID(id)
	return entry != nil && entry.builtIn
}
