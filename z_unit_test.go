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

package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zintix-labs/backoffice/access"
	"github.com/zintix-labs/backoffice/backend"
	"github.com/zintix-labs/backoffice/catalog"
	"github.com/zintix-labs/backoffice/catalog/defaults"
	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/export"
	"github.com/zintix-labs/backoffice/session"
)

const (
	roleOps   = `{"_id":"r1","role":"ops","isSuperAdmin":false,"permission":{"player":{"GET":true},"playhistory":{"GET":true},"website":{"GET":true,"POST":true,"PUT":true,"PATCH":true,"DELETE":true}}}`
	roleAdmin = `{"_id":"r0","role":"admin","isSuperAdmin":false,"permission":{"website":{"GET":true,"POST":true,"DELETE":true}}}`
)

// fakeAPI is a small admin API good enough for console tests.
type fakeAPI struct {
	mu       sync.Mutex
	role     string
	websites []dto.Website
	history  []dto.PlayRecord
	expired  bool
	lastQ    string
	calls    int

	// expireOnDelete 讓 delete 成功之後的 refetch 拿到 401
	expireOnDelete bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if r.URL.Path == "/auth/login" {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"token":    "tok",
			"role":     json.RawMessage(f.role),
			"web_list": []string{"w1"},
		}})
		return
	}
	if f.expired || r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/player":
		_, _ = w.Write([]byte(`{"data":[{"_id":"p1","username":"Alice","name":"A"},{"_id":"p2","username":"bob","name":"B"}]}`))
	case "/playhistory":
		f.lastQ = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"items": f.history}})
	case "/admin/websites":
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(f.websites)
		case http.MethodPost:
			var in dto.WebsiteCreate
			_ = json.NewDecoder(r.Body).Decode(&in)
			nw := dto.Website{ID: "w9", Name: in.Name, URL: in.URL, Links: in.Links}
			f.websites = append(f.websites, nw)
			_, _ = w.Write([]byte(`{"id":"w9"}`))
		case http.MethodDelete:
			var in dto.IDRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			f.websites = deleteWebsite(f.websites, in.ID)
			f.expired = f.expireOnDelete
			_, _ = w.Write([]byte(`{}`))
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func deleteWebsite(ws []dto.Website, id string) []dto.Website {
	out := ws[:0]
	for _, w := range ws {
		if w.ID != id {
			out = append(out, w)
		}
	}
	return out
}

func newConsole(t *testing.T, role string) (*Console, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{
		role:     role,
		websites: []dto.Website{{ID: "w1", Name: "One"}, {ID: "w2", Name: "Two"}},
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cat, err := catalog.Load(defaults.FS, defaults.Name)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	c, err := New(Deps{
		BackendURL: srv.URL,
		Sessions:   session.NewManager(session.NewMemoryStore()),
		Catalog:    cat,
		Now:        func() time.Time { return time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return c, api
}

func login(t *testing.T, c *Console) (context.Context, *session.Session) {
	t.Helper()
	s, err := c.Login(context.Background(), backend.Credentials{Username: "amy", Password: "pw"}, "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return session.WithSession(context.Background(), s), s
}

func TestLoginThenNavigate(t *testing.T) {
	c, _ := newConsole(t, roleOps)
	ctx, s := login(t, c)
	if s.Role == nil || s.Role.Name != "ops" || !s.Manages("w1") {
		t.Fatalf("session not populated: %+v", s)
	}
	if got := c.Landing(s); got != "/players" {
		t.Fatalf("landing = %q", got)
	}
	nav, err := c.Nav(ctx)
	if err != nil {
		t.Fatalf("nav: %v", err)
	}
	var paths []string
	for _, e := range nav {
		paths = append(paths, e.Path)
	}
	if strings.Join(paths, ",") != "/players,/playhistory,/transactions,/websites" {
		t.Fatalf("menu = %v", paths)
	}

	sc, err := c.Players(ctx, ListParams{Search: "ALI"})
	if err != nil {
		t.Fatalf("players: %v", err)
	}
	if sc.Total != 1 || sc.Items[0].ID != "p1" || sc.Actions.Create {
		t.Fatalf("unexpected screen %+v", sc)
	}
}

func TestBackend401ClearsSession(t *testing.T) {
	c, api := newConsole(t, roleOps)
	ctx, s := login(t, c)
	api.expired = true

	_, err := c.Players(ctx, ListParams{})
	if !backend.IsUnauthorized(err) || errs.Level(err) != errs.Auth {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := c.Sessions().Load(context.Background(), s.ID); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("session should be cleared after 401, got %v", err)
	}
}

func TestRefetch401AfterDeleteClearsSession(t *testing.T) {
	c, api := newConsole(t, roleOps)
	ctx, s := login(t, c)
	api.expireOnDelete = true

	res, err := c.DeleteWebsite(ctx, "w1", true)
	if !backend.IsUnauthorized(err) || errs.Level(err) != errs.Auth {
		t.Fatalf("expected unauthorized, got err=%v res=%+v", err, res)
	}
	if res.Stale {
		t.Fatalf("a 401 refetch must not be reported as stale")
	}
	if _, err := c.Sessions().Load(context.Background(), s.ID); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("session should be cleared after 401, got %v", err)
	}
}

func TestPermissionDeniedIsAdvisory(t *testing.T) {
	c, api := newConsole(t, roleOps)
	ctx, _ := login(t, c)
	before := api.calls
	_, err := c.Users(ctx, ListParams{})
	if errs.Level(err) != errs.Denied {
		t.Fatalf("expected Denied, got %v", err)
	}
	if api.calls != before {
		t.Fatalf("denied screen should not call the backend")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	c, api := newConsole(t, roleOps)
	ctx, s := login(t, c)
	before := api.calls

	_, err := c.DeleteWebsite(ctx, "w1", false)
	if !errors.Is(err, ErrNeedsConfirm) || errs.Level(err) != errs.Confirm {
		t.Fatalf("expected ErrNeedsConfirm, got %v", err)
	}
	if api.calls != before {
		t.Fatalf("unconfirmed delete must not reach the backend")
	}

	res, err := c.DeleteWebsite(ctx, "w1", true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("w1 should be gone from the managed list: %+v", res.Items)
	}
	got, _ := c.Sessions().Load(context.Background(), s.ID)
	if got.Manages("w1") {
		t.Fatalf("deleted website should leave the session list")
	}
}

func TestAdminCreateAddsManagedWebsite(t *testing.T) {
	c, _ := newConsole(t, roleAdmin)
	ctx, s := login(t, c)

	res, err := c.CreateWebsite(ctx, dto.WebsiteCreate{
		Name:  " New ",
		URL:   "https://new.example",
		Links: []dto.Link{{URL: " "}, {URL: "https://m.new.example"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.ID != "w9" || len(res.Items) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	got, _ := c.Sessions().Load(context.Background(), s.ID)
	if !got.Manages("w9") {
		t.Fatalf("admin should now manage w9: %v", got.Websites)
	}

	sc, err := c.Websites(session.WithSession(context.Background(), got), ListParams{})
	if err != nil {
		t.Fatalf("websites: %v", err)
	}
	if sc.Total != 2 {
		t.Fatalf("only managed websites should be listed, got %d", sc.Total)
	}
}

func TestNonAdminCreateDoesNotAddManagedWebsite(t *testing.T) {
	c, _ := newConsole(t, roleOps)
	ctx, s := login(t, c)
	res, err := c.CreateWebsite(ctx, dto.WebsiteCreate{Name: "New"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("ops still only sees w1, got %+v", res.Items)
	}
	got, _ := c.Sessions().Load(context.Background(), s.ID)
	if got.Manages("w9") {
		t.Fatalf("ops should not gain w9")
	}
}

func TestHistorySearchAndExport(t *testing.T) {
	c, api := newConsole(t, roleOps)
	ctx, _ := login(t, c)
	at := dto.Time{Time: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)}
	api.history = []dto.PlayRecord{
		{ID: "h1", Client: dto.Client{ID: "a", Username: "amy"}, Game: "G", Status: "win", Amount: 10, CreatedAt: at},
		{ID: "h2", Client: dto.Client{ID: "b", Username: "ben"}, Game: "G", Status: "lose", Amount: 5, CreatedAt: at},
		{ID: "h3", Client: dto.Client{ID: "a", Username: "amy"}, Game: "H", Status: "win", Amount: 20, CreatedAt: at},
	}

	sc, err := c.History(ctx, dto.HistoryQuery{Game: "G"}, GroupParams{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if api.lastQ != "end=2025-06-07&game=G" {
		t.Fatalf("query = %q", api.lastQ)
	}
	if sc.Query.End != "2025-06-07" || sc.Total != 2 || sc.Items[0].Summary.Total != 30 {
		t.Fatalf("unexpected screen %+v", sc)
	}

	n := 0
	ex, err := c.ExportHistory(ctx, dto.HistoryQuery{}, export.CSV, func() { n++ })
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ex.FileName != "Play_History_2025-06-07.csv" || ex.Rows != 3 || n != 3 {
		t.Fatalf("unexpected export %+v", ex)
	}
	if !strings.Contains(string(ex.Body), "amy,0,H,win,20,\"01/06/2025, 09:30\"") {
		t.Fatalf("body:\n%s", ex.Body)
	}

	api.history = nil
	if _, err := c.ExportHistory(ctx, dto.HistoryQuery{}, export.CSV, nil); !errors.Is(err, export.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestNoSessionInContext(t *testing.T) {
	c, _ := newConsole(t, roleOps)
	if _, err := c.Players(context.Background(), ListParams{}); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if c.Landing(nil) != "" {
		t.Fatalf("no session has no landing")
	}
	var r *access.Role
	if access.CanAccess(r, access.ModulePlayer, access.Read) {
		t.Fatalf("nil role grants nothing")
	}
}

// stuckStore 的 Delete 永遠失敗。
type stuckStore struct{ *session.MemoryStore }

func (stuckStore) Delete(context.Context, string) error { return errors.New("store unavailable") }

func TestReloginLogsFailedLogout(t *testing.T) {
	srv := httptest.NewServer(&fakeAPI{role: roleOps})
	t.Cleanup(srv.Close)
	cat, err := catalog.Load(defaults.FS, defaults.Name)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	var buf bytes.Buffer
	c, err := New(Deps{
		BackendURL: srv.URL,
		Sessions:   session.NewManager(stuckStore{session.NewMemoryStore()}),
		Catalog:    cat,
		Log:        slog.New(slog.NewTextHandler(&buf, nil)),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	cred := backend.Credentials{Username: "amy", Password: "pw"}
	first, err := c.Login(context.Background(), cred, "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second, err := c.Login(context.Background(), cred, first.ID)
	if err != nil {
		t.Fatalf("relogin should still succeed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("relogin must issue a new session")
	}
	if !strings.Contains(buf.String(), "logout previous session failed") || !strings.Contains(buf.String(), "store unavailable") {
		t.Fatalf("failed logout not logged: %q", buf.String())
	}
}

// 授權標頭之後只留一行空白，接著就是 package 說明或 package 子句。
func TestLicenseHeaderSpacing(t *testing.T) {
	const tail = "// limitations under the License.\n"
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		src := string(b)
		i := strings.Index(src, tail)
		if i < 0 {
			t.Errorf("%s: license header missing", path)
			return nil
		}
		rest := src[i+len(tail):]
		if !strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\n\n") {
			t.Errorf("%s: want exactly one blank line after the license header", path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
}
