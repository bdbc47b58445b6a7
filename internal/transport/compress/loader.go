package compress

import (
	"go.uber.org/zap"

	"github.com/lk2023060901/knet-garden-go/pkg/metrics"
	"github.com/lk2023060901/knet-garden-go/pkg/util/merr"
)

// ensureReady 保证模型的底层实现已加载、且在 h 上完成了初始化，
// 成功时持锁返回（读锁或写锁对调用方透明），由返回的 unlock 释放。
//
// rateLimited 为 true 时应用失败冷却：上一次加载失败后的冷却期内
// 直接拒绝，用于解压这类可被恶意报文触发的路径。
func (r *Registry) ensureReady(h *Handle, id ModelID, rateLimited bool) (unlock func(), err error) {
	entry := r.entryByID(id)
	if entry == nil {
		return nil, merr.WrapErrCompressModelNotFound(id)
	}
	if !entry.builtIn {
		return nil, merr.WrapErrCompressModelNotBuiltIn(entry.name)
	}

	r.mu.RLock()
	if r.states[id].loaded && entry.init.isInit(h, id) {
		return r.mu.RUnlock, nil
	}
	// 冷却检查只看快速路径是否命中，不看库是否已加载：
	// 库已加载但 h 尚未初始化时同样拒绝，避免失败风暴下的初始化抖动。
	if rateLimited &&
		!r.lastLoadFailure.IsZero() && r.now().Sub(r.lastLoadFailure) < loadFailureWindow {
		r.mu.RUnlock()
		metrics.CompressLoadRateLimitedTotal.WithLabelValues(entry.name).Inc()
		r.logger.Warn("compress library load rate limited",
			zap.String("model", entry.name))
		return nil, merr.WrapErrCompressRateLimited(entry.name)
	}
	r.mu.RUnlock()

	// 读锁升级为写锁存在空窗，其他协程可能已经完成了加载，
	// 拿到写锁后必须重新检查。
	r.mu.Lock()
	st := &r.states[id]
	if st.loaded && entry.init.isInit(h, id) {
		return r.mu.Unlock, nil
	}

	if rateLimited && !r.lastLoadFailure.IsZero() &&
		r.now().Sub(r.lastLoadFailure) < loadFailureWindow {
		r.mu.Unlock()
		metrics.CompressLoadRateLimitedTotal.WithLabelValues(entry.name).Inc()
		return nil, merr.WrapErrCompressRateLimited(entry.name)
	}

	if !st.loaded {
		if loadErr := entry.model.LoadLib(); loadErr != nil {
			r.lastLoadFailure = r.now()
			r.mu.Unlock()
			metrics.CompressLibLoadTotal.WithLabelValues(entry.name, metrics.FailStatusLabel).Inc()
			r.logger.Warn("failed to load compress library",
				zap.String("model", entry.name), zap.Error(loadErr))
			return nil, merr.WrapErrCompressLibLoadFailed(loadErr, entry.name)
		}
		st.loaded = true
		metrics.CompressLibLoadTotal.WithLabelValues(entry.name, metrics.SuccessStatusLabel).Inc()
		r.logger.Info("compress library loaded", zap.String("model", entry.name))
	}

	if !entry.init.isInit(h, id) {
		if initErr := entry.init.init(h, id); initErr != nil {
			r.mu.Unlock()
			r.logger.Warn("failed to init compress model",
				zap.String("model", entry.name), zap.Error(initErr))
			return nil, merr.WrapErrCompressInitFailed(initErr, entry.name)
		}
		st.libref++
		h.owned.Insert(id)
	}

	return r.mu.Unlock, nil
}

// release 释放 h 在模型上持有的引用，引用归零时卸载底层实现。
// 未在 h 上初始化过的模型直接忽略。
func (r *Registry) release(h *Handle, id ModelID) {
	entry := r.entryByID(id)
	if entry == nil || !entry.builtIn {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !h.owned.Contain(id) {
		return
	}
	entry.init.fini(h, id)
	h.owned.Remove(id)

	st := &r.states[id]
	if st.libref > 0 {
		st.libref--
	}
	if st.libref == 0 && st.loaded {
		entry.model.UnloadLib()
		st.loaded = false
		r.logger.Info("compress library unloaded", zap.String("model", entry.name))
	}
}
