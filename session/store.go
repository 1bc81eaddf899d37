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

// Package session 管理 staff 的登入狀態：不透明的 bearer token、登入時快取的角色描述，
// 以及該使用者可管理的網站清單。
//
// 儲存層（Store）只存原始資料；角色 blob 在 Manager.Load 時驗證一次，失敗時以「無權限」處理。
// Manager 是唯一的寫入入口（Login / Logout / UpdateWebsites）。
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/zintix-labs/backoffice/errs"
)

// ErrNotFound is returned by Store.Get when the id is unknown or expired.
var ErrNotFound = errs.NewAuth("session not found")

// Record 是 Store 中保存的原始 session 資料。
type Record struct {
	Token     string          `json:"token"`
	Role      json.RawMessage `json:"role,omitempty"`
	Websites  []string        `json:"web_list,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

// Store 是 session 的 key-value 持久層。
//   - Get 找不到時回 ErrNotFound。
//   - Put 以 ttl 覆寫整筆資料；ttl <= 0 代表不過期。
//   - Delete 是冪等的。
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	Put(ctx context.Context, id string, rec *Record, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// -----------------------------------------------------------------------------
//  MemoryStore
// -----------------------------------------------------------------------------

type memItem struct {
	rec      Record
	expireAt time.Time // zero: never
}

// MemoryStore keeps sessions in process memory. Suitable for a single console instance.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]memItem{}, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	it, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !it.expireAt.IsZero() && !s.now().Before(it.expireAt) {
		s.mu.Lock()
		delete(s.items, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	rec := it.rec
	rec.Websites = append([]string(nil), it.rec.Websites...)
	return &rec, nil
}

func (s *MemoryStore) Put(_ context.Context, id string, rec *Record, ttl time.Duration) error {
	if rec == nil {
		return errs.NewFatal("nil session record")
	}
	it := memItem{rec: *rec}
	it.rec.Websites = append([]string(nil), rec.Websites...)
	if ttl > 0 {
		it.expireAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[id] = it
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included until touched.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
