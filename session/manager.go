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

package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/backoffice/access"
	"github.com/zintix-labs/backoffice/errs"
)

// ErrNoSession is returned by Load when no usable session exists for the id.
var ErrNoSession = errs.NewAuth("not authenticated")

// Session 是載入後、已驗證過的 session。
type Session struct {
	ID        string
	Token     string
	Role      *access.Role // nil: no permissions
	Websites  []string
	CreatedAt time.Time
	// RoleErr is set when the stored role blob failed validation.
	RoleErr error
}

// Manages reports whether websiteID is in the session's managed website list.
func (s *Session) Manages(websiteID string) bool {
	return s != nil && slices.Contains(s.Websites, websiteID)
}

type Manager struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Manager)

// WithTTL sets how long a stored session lives. Zero means until logout.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		log:   slog.New(slog.DiscardHandler),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Login 建立一個全新的 session（舊的 session 由呼叫端先 Logout）。
// role 是後端回傳的原始 JSON；這裡只保存、不解析。
func (m *Manager) Login(ctx context.Context, token string, role json.RawMessage, websites []string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errs.NewAuth("login returned an empty token")
	}
	rec := &Record{
		Token:     token,
		Role:      role,
		Websites:  dedup(websites),
		CreatedAt: m.now().Unix(),
	}
	id := m.newID()
	if err := m.store.Put(ctx, id, rec, m.ttl); err != nil {
		return nil, errs.Wrap(err, "save session")
	}
	return m.hydrate(id, rec), nil
}

// Load 讀取並驗證 session。空 id 或找不到時回傳 ErrNoSession。
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		if errs.Level(err) == errs.Auth {
			return nil, ErrNoSession
		}
		return nil, errs.Wrap(err, "load session")
	}
	if strings.TrimSpace(rec.Token) == "" {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNoSession
	}
	return m.hydrate(id, rec), nil
}

// Logout removes the session. Unknown ids are not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return errs.Wrap(err, "delete session")
	}
	return nil
}

// UpdateWebsites 以 fn 改寫 session 的可管理網站清單並寫回。
func (m *Manager) UpdateWebsites(ctx context.Context, id string, fn func([]string) []string) ([]string, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		if errs.Level(err) == errs.Auth {
			return nil, ErrNoSession
		}
		return nil, errs.Wrap(err, "load session")
	}
	rec.Websites = dedup(fn(append([]string(nil), rec.Websites...)))
	ttl := m.ttl
	if ttl > 0 {
		// 保持原本的到期時間，不因為改清單而延長
		ttl -= m.now().Sub(time.Unix(rec.CreatedAt, 0))
		if ttl <= 0 {
			_ = m.store.Delete(ctx, id)
			return nil, ErrNoSession
		}
	}
	if err := m.store.Put(ctx, id, rec, ttl); err != nil {
		return nil, errs.Wrap(err, "save session")
	}
	return rec.Websites, nil
}

func (m *Manager) hydrate(id string, rec *Record) *Session {
	s := &Session{
		ID:        id,
		Token:     rec.Token,
		Websites:  rec.Websites,
		CreatedAt: time.Unix(rec.CreatedAt, 0),
	}
	if len(rec.Role) > 0 {
		role, err := access.ParseRole(rec.Role)
		if err != nil {
			s.RoleErr = err
			m.log.Warn("session role rejected, treating as no permissions",
				slog.String("sid", shortID(id)), slog.Any("err", err))
		} else {
			s.Role = role
		}
	} else {
		s.RoleErr = access.ErrMalformedRole
	}
	return s
}

func dedup(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type ctxKey struct{}

// WithSession stores s in ctx for handlers behind the route guard.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
