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

// Package view 把後端資料整理成畫面要用的形狀：分頁、搜尋、依玩家分組。
// 這裡不碰 HTTP，也不碰 session。
package view

import "github.com/zintix-labs/backoffice/access"

// 每頁筆數
const (
	MasterPageSize = 10
	GroupPageSize  = 5
	NestedPageSize = 10
)

// Page is one page of items plus what the pager needs to render.
type Page[T any] struct {
	Items     []T   `json:"items"`
	Page      int   `json:"page"`
	Size      int   `json:"size"`
	Total     int   `json:"total"`
	PageCount int   `json:"page_count"`
	Pages     []int `json:"pages"`
	// ShowPager is false when everything fits on one page.
	ShowPager bool `json:"show_pager"`
}

// Paginate 切出第 page 頁。page 會被夾在 [1, PageCount]，PageCount 至少為 1。
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = MasterPageSize
	}
	n := len(items)
	count := max(1, (n+size-1)/size)
	page = min(max(page, 1), count)

	lo := min((page-1)*size, n)
	hi := min(lo+size, n)

	pages := make([]int, count)
	for i := range pages {
		pages[i] = i + 1
	}
	out := make([]T, hi-lo)
	copy(out, items[lo:hi])
	return Page[T]{
		Items:     out,
		Page:      page,
		Size:      size,
		Total:     n,
		PageCount: count,
		Pages:     pages,
		ShowPager: n > size,
	}
}

// Screen is the view model of one CRUD screen.
type Screen[T any] struct {
	Module  string         `json:"module"`
	Actions access.Actions `json:"actions"`
	Search  string         `json:"search,omitempty"`
	Page[T]
}

func NewScreen[T any](role *access.Role, module string, items []T, page, size int) Screen[T] {
	return Screen[T]{
		Module:  module,
		Actions: access.ActionsFor(role, module),
		Page:    Paginate(items, page, size),
	}
}
