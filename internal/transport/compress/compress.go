package compress

import (
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/knet-garden-go/pkg/metrics"
	"github.com/lk2023060901/knet-garden-go/pkg/util/merr"
)

// Config 为一条链路的压缩配置，可直接从 YAML/JSON 反序列化。
type Config struct {
	// Model 为压缩模型名称，如 "none"、"zlib"、"zstd"。
	Model string `mapstructure:"model" json:"model"`
	// Level 为压缩级别，取值范围由具体模型决定。
	Level int `mapstructure:"level" json:"level"`
	// Threshold 为触发压缩的最小报文字节数，0 表示使用默认值。
	Threshold uint32 `mapstructure:"threshold" json:"threshold"`
}

// Configure 将 cfg 应用到 h 上。
//
// 任何一项校验失败都不会改动 h 的现有配置。配置为 none 之外的
// 模型时会立即加载对应的底层实现，以便尽早暴露环境问题。
func (r *Registry) Configure(h *Handle, cfg Config) error {
	entry, err := r.resolve(cfg.Model)
	if err != nil {
		r.logger.Warn("unknown compress model",
			zap.String("model", cfg.Model))
		return err
	}

	if entry.id == 0 {
		r.mu.Lock()
		h.model = entry.id
		h.level = cfg.Level
		r.mu.Unlock()
		r.logger.Info("compression disabled")
		return nil
	}

	if !entry.builtIn {
		r.logger.Warn("compress model not built in",
			zap.String("model", entry.name))
		return merr.WrapErrCompressModelNotBuiltIn(entry.name, "configure")
	}

	unlock, err := r.ensureReady(h, entry.id, false)
	if err != nil {
		return err
	}

	if !entry.model.ValidateLevel(cfg.Level) {
		unlock()
		r.logger.Warn("compress level not supported",
			zap.String("model", entry.name), zap.Int("level", cfg.Level))
		return merr.WrapErrCompressLevelInvalid(entry.name, cfg.Level, "configure")
	}

	if cfg.Threshold > MaxPacketSize {
		unlock()
		return merr.WrapErrCompressThresholdTooLarge(cfg.Threshold, MaxPacketSize, "configure")
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	h.model = entry.id
	h.level = cfg.Level
	h.threshold = threshold
	unlock()

	r.logger.Info("compression configured",
		zap.String("model", entry.name),
		zap.Int("level", cfg.Level),
		zap.Uint32("threshold", threshold))
	return nil
}

// Compress 用 h 当前配置的模型压缩 src。
// 模型为 none 时原样返回 src。
func (r *Registry) Compress(h *Handle, dst, src []byte) ([]byte, error) {
	if h.model == 0 {
		return src, nil
	}

	entry := r.entryByID(h.model)
	if entry == nil {
		return nil, merr.WrapErrCompressModelNotFound(h.model, "compress")
	}

	unlock, err := r.ensureReady(h, h.model, false)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := entry.model.Compress(h, dst, src, h.level)
	unlock()

	metrics.CompressOpLatency.WithLabelValues(entry.name, metrics.CompressOpLabel).
		Observe(float64(time.Since(start).Microseconds()))
	if err != nil {
		metrics.CompressOpTotal.WithLabelValues(entry.name, metrics.CompressOpLabel, metrics.FailStatusLabel).Inc()
		return nil, merr.WrapErrCompressCodecFailed(err, entry.name, "compress")
	}
	if len(out) > dataBufSize {
		metrics.CompressOpTotal.WithLabelValues(entry.name, metrics.CompressOpLabel, metrics.FailStatusLabel).Inc()
		return nil, merr.WrapErrPacketTooLarge(len(out), dataBufSize, "compress")
	}
	metrics.CompressOpTotal.WithLabelValues(entry.name, metrics.CompressOpLabel, metrics.SuccessStatusLabel).Inc()
	metrics.CompressPayloadBytes.WithLabelValues(entry.name, metrics.CompressOpLabel).
		Observe(float64(len(src)))
	return out, nil
}

// Decompress 用 id 指定的模型解压 src。
//
// id 来自报文头，属于攻击者可控输入：先于任何加锁校验范围，
// 库加载应用失败冷却。id 为 0 时原样返回 src。
func (r *Registry) Decompress(h *Handle, id ModelID, dst, src []byte) ([]byte, error) {
	if id > r.maxModel {
		return nil, merr.WrapErrCompressModelNotFound(id, "decompress")
	}
	if id == 0 {
		return src, nil
	}

	entry := r.entryByID(id)
	if entry == nil {
		return nil, merr.WrapErrCompressModelNotFound(id, "decompress")
	}
	if !entry.builtIn {
		return nil, merr.WrapErrCompressModelNotBuiltIn(entry.name, "decompress")
	}

	unlock, err := r.ensureReady(h, id, true)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := entry.model.Decompress(h, dst, src)
	unlock()

	metrics.CompressOpLatency.WithLabelValues(entry.name, metrics.DecompressOpLabel).
		Observe(float64(time.Since(start).Microseconds()))
	if err != nil {
		metrics.CompressOpTotal.WithLabelValues(entry.name, metrics.DecompressOpLabel, metrics.FailStatusLabel).Inc()
		return nil, merr.WrapErrCompressCodecFailed(err, entry.name, "decompress")
	}
	if len(out) > dataBufSize {
		metrics.CompressOpTotal.WithLabelValues(entry.name, metrics.DecompressOpLabel, metrics.FailStatusLabel).Inc()
		return nil, merr.WrapErrPacketTooLarge(len(out), dataBufSize, "decompress")
	}
	metrics.CompressOpTotal.WithLabelValues(entry.name, metrics.DecompressOpLabel, metrics.SuccessStatusLabel).Inc()
	metrics.CompressPayloadBytes.WithLabelValues(entry.name, metrics.DecompressOpLabel).
		Observe(float64(len(out)))
	return out, nil
}

// Fini 释放 h 持有的全部模型引用。
// 只释放 h 自己初始化过的模型，不影响其他 Handle。
func (r *Registry) Fini(h *Handle) {
	for _, id := range h.owned.Collect() {
		r.release(h, id)
	}
}
