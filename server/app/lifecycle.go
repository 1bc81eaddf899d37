// Copyright 2025 Zintix Labs
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

package app

import "context"

// Component 是 App 管理的長生命週期元件，例如 console 的 HTTP server。
//   - Run 阻塞到元件停止（正常或錯誤）；正常關閉時回傳 nil。
//   - Shutdown(ctx) 要求優雅關閉，需尊重 ctx 的 deadline。
//
// 不屬於任何 Component 的共用資源（Redis client、log 檔）用 App.OnShutdown 收尾。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}
