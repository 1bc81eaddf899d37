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

// Package backoffice 是 console 的組裝入口（assembler）。
//
// Console 把下列元件組在一起，並提供每個畫面的操作：
//  1. catalog：導覽目錄，決定有哪些畫面、順序與路徑。
//  2. session.Manager：登入狀態的唯一寫入點。
//  3. backend.Client：admin API 的唯一出口；401 時透過 hook 登出目前的 session。
//  4. repo：每個資源一個 Repository，mutation 之後自動重新讀取。
//
// 權限檢查（access）只是 UX 上的過濾：後端仍然會在每個 API 上自行判斷。
// 所有操作都從 ctx 取 session（由 guard middleware 或 CLI 放入）。
package backoffice

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/zintix-labs/backoffice/access"
	"github.com/zintix-labs/backoffice/backend"
	"github.com/zintix-labs/backoffice/catalog"
	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/repo"
	"github.com/zintix-labs/backoffice/session"
)

// ErrNeedsConfirm is returned by delete operations called without confirmation.
var ErrNeedsConfirm = errs.New(errs.Confirm, "confirm deletion")

// Deps are the collaborators New wires together.
type Deps struct {
	BackendURL     string
	BackendTimeout time.Duration
	Sessions       *session.Manager
	Catalog        *catalog.Catalog
	Log            *slog.Logger
	// Location is used for export timestamps. nil means UTC.
	Location *time.Location
	// Now is for tests.
	Now func() time.Time
}

type Console struct {
	cat      *catalog.Catalog
	sessions *session.Manager
	be       *backend.Client
	log      *slog.Logger
	loc      *time.Location
	now      func() time.Time

	users     repo.Repository[dto.User]
	roles     repo.Repository[dto.RoleOption]
	whitelist repo.Repository[dto.WhitelistEntry]
	players   repo.Repository[dto.Player]
	history   repo.Repository[dto.PlayRecord]
	txs       repo.Repository[dto.TransactionRecord]
	websites  repo.Repository[dto.Website]
}

func New(d Deps) (*Console, error) {
	if d.Sessions == nil {
		return nil, errs.NewFatal("session manager required")
	}
	if d.Catalog == nil || d.Catalog.Len() == 0 {
		return nil, errs.NewFatal("navigation catalog required")
	}
	c := &Console{
		cat:      d.Catalog,
		sessions: d.Sessions,
		log:      d.Log,
		loc:      d.Location,
		now:      d.Now,
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}

	be, err := backend.New(d.BackendURL,
		backend.WithTimeout(d.BackendTimeout),
		backend.WithLogger(c.log),
		backend.OnUnauthorized(c.expire),
	)
	if err != nil {
		return nil, err
	}
	c.be = be

	c.users = repo.Refetching[dto.User](repo.Users(be), c.log)
	c.roles = repo.Roles(be)
	c.whitelist = repo.Refetching[dto.WhitelistEntry](repo.Whitelist(be), c.log)
	c.players = repo.Players(be)
	c.history = repo.PlayHistory(be)
	c.txs = repo.Transactions(be)
	c.websites = repo.Refetching[dto.Website](repo.Websites(be), c.log)
	return c, nil
}

func (c *Console) Catalog() *catalog.Catalog  { return c.cat }
func (c *Console) Sessions() *session.Manager { return c.sessions }

// expire 是 backend 401 的 hook：清掉目前這個 session。
func (c *Console) expire(ctx context.Context) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return
	}
	if err := c.sessions.Logout(context.WithoutCancel(ctx), s.ID); err != nil {
		c.log.Warn("logout after backend 401 failed", slog.Any("err", err))
		return
	}
	c.log.Info("session cleared after backend 401")
}

// Login exchanges credentials for a new session. Any previous session id is
// logged out first so a re-login replaces the session wholesale.
func (c *Console) Login(ctx context.Context, cred backend.Credentials, previousID string) (*session.Session, error) {
	res, err := c.be.Login(ctx, cred)
	if err != nil {
		return nil, err
	}
	if previousID != "" {
		// 舊 session 清不掉不擋新登入，但要留下紀錄
		if err := c.sessions.Logout(ctx, previousID); err != nil {
			c.log.Warn("logout previous session failed", slog.Any("err", err))
		}
	}
	s, err := c.sessions.Login(ctx, res.Token, res.Role, res.Websites)
	if err != nil {
		return nil, err
	}
	// 重新載入一次，讓 role 在這裡就完成驗證
	return c.sessions.Load(ctx, s.ID)
}

func (c *Console) Logout(ctx context.Context, sessionID string) error {
	return c.sessions.Logout(ctx, sessionID)
}

// Nav is the navigation menu for the session's role.
func (c *Console) Nav(ctx context.Context) ([]catalog.Entry, error) {
	s, err := current(ctx)
	if err != nil {
		return nil, err
	}
	return access.Menu(s.Role, c.cat), nil
}

// Landing is the first navigable path for the session, "" when there is none.
func (c *Console) Landing(s *session.Session) string {
	if s == nil {
		return ""
	}
	return access.Landing(s.Role, c.cat)
}

func current(ctx context.Context) (*session.Session, error) {
	s, ok := session.FromContext(ctx)
	if !ok || strings.TrimSpace(s.Token) == "" {
		return nil, session.ErrNoSession
	}
	return s, nil
}

// authorize 取出 session、檢查權限，並回傳帶著 bearer token 的 ctx。
func (c *Console) authorize(ctx context.Context, module string, verb access.Verb) (context.Context, *session.Session, error) {
	s, err := current(ctx)
	if err != nil {
		return ctx, nil, err
	}
	if err := access.Require(s.Role, module, verb); err != nil {
		return ctx, s, err
	}
	return backend.WithToken(ctx, s.Token), s, nil
}

func confirmed(ok bool) error {
	if !ok {
		return ErrNeedsConfirm
	}
	return nil
}
