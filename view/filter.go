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

package view

import (
	"strings"

	"github.com/zintix-labs/backoffice/dto"
	"golang.org/x/text/cases"
)

// Filter keeps the items for which any field contains term, compared under
// Unicode case folding. An empty term keeps everything.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	term = strings.TrimSpace(term)
	if term == "" {
		return items
	}
	// Caser 有狀態，不能跨 goroutine 共用
	fold := cases.Fold()
	needle := fold.String(term)
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(fold.String(f), needle) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func PlayerFields(p dto.Player) []string { return []string{p.Username, p.Name} }

func WebsiteFields(w dto.Website) []string { return []string{w.Name, w.URL} }

// Managed keeps the websites whose id is in ids, preserving backend order.
func Managed(all []dto.Website, ids []string) []dto.Website {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]dto.Website, 0, len(ids))
	for _, w := range all {
		if _, ok := keep[w.ID]; ok {
			out = append(out, w)
		}
	}
	return out
}
