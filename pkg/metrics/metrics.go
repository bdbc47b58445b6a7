// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	// #nosec
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// knetNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	knetNamespace = "knet"

	// 以下为当前使用的通用标签名。
	modelLabelName  = "model"
	opLabelName     = "op"
	statusLabelName = "status"

	// op 标签的取值。
	CompressOpLabel   = "compress"
	DecompressOpLabel = "decompress"

	// status 标签的取值。
	SuccessStatusLabel = "success"
	FailStatusLabel    = "fail"
)

var (
	// durationBuckets 为压缩/解压耗时直方图的桶划分，单位为微秒。
	// 实际桶分布为：
	// [1 2 4 8 16 32 64 128 256 512 1024 2048 4096 8192 16384 32768]
	durationBuckets = prometheus.ExponentialBuckets(1, 2, 16)

	// sizeBuckets 为报文大小的桶划分，单位为字节。
	sizeBuckets = []float64{64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65536}

	CompressOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: knetNamespace,
			Name:      "compress_op_total",
			Help:      "number of compress and decompress operations",
		}, []string{modelLabelName, opLabelName, statusLabelName})

	CompressOpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: knetNamespace,
			Name:      "compress_op_latency",
			Help:      "latency of compress and decompress operations in microseconds",
			Buckets:   durationBuckets,
		}, []string{modelLabelName, opLabelName})

	CompressPayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: knetNamespace,
			Name:      "compress_payload_bytes",
			Help:      "payload size observed on compress and decompress paths",
			Buckets:   sizeBuckets,
		}, []string{modelLabelName, opLabelName})

	CompressLibLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: knetNamespace,
			Name:      "compress_lib_load_total",
			Help:      "number of compression library load attempts",
		}, []string{modelLabelName, statusLabelName})

	CompressLoadRateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: knetNamespace,
			Name:      "compress_load_rate_limited_total",
			Help:      "number of library load attempts rejected by the failure cool-down",
		}, []string{modelLabelName})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
// 通常应在 init 函数中调用。
func Register(r prometheus.Registerer) {
	r.MustRegister(CompressOpTotal)
	r.MustRegister(CompressOpLatency)
	r.MustRegister(CompressPayloadBytes)
	r.MustRegister(CompressLibLoadTotal)
	r.MustRegister(CompressLoadRateLimitedTotal)
	metricRegisterer = r
}
