// Copyright (c) 2019 The Gnet Authors. All rights reserved.
// Copyright (c) 2016 Aliaksandr Valialkin, VertaMedia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Use of this source code is governed by a MIT license that can be found
// at https://github.com/valyala/bytebufferpool/blob/master/LICENSE

// Package bytebuffer 封装 valyala/bytebufferpool，为编解码路径提供
// 可复用的字节缓冲区，以降低 GC 压力。
package bytebuffer

import (
	"github.com/valyala/bytebufferpool"
)

// ByteBuffer 是 bytebufferpool.ByteBuffer 的别名，
// 其 B 字段即底层字节切片。
type ByteBuffer = bytebufferpool.ByteBuffer

// Get 从默认池中获取一个空的字节缓冲区。
//
// 通过 Put 归还缓冲区可以显著减少内存分配次数。
func Get() *ByteBuffer {
	return bytebufferpool.Get()
}

// Put 将字节缓冲区归还到默认池中。
//
// 注意：归还后的 ByteBuffer 不允许再被访问，否则会引发数据竞争。
func Put(b *ByteBuffer) {
	bytebufferpool.Put(b)
}
