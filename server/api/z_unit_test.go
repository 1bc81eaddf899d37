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

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zintix-labs/backoffice"
	"github.com/zintix-labs/backoffice/catalog"
	"github.com/zintix-labs/backoffice/catalog/defaults"
	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/server/logger"
	"github.com/zintix-labs/backoffice/server/netsvr"
	"github.com/zintix-labs/backoffice/server/svrcfg"
	"github.com/zintix-labs/backoffice/session"
)

const roleOps = `{"_id":"r1","role":"ops","isSuperAdmin":false,"permission":{"player":{"GET":true},"playhistory":{"GET":true},"website":{"GET":true,"POST":true,"PUT":true,"DELETE":true}}}`

type fakeAPI struct {
	mu       sync.Mutex
	token    string
	expired  bool
	websites []dto.Website
	deleted  []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.URL.Path == "/auth/login" {
		var cred map[string]string
		_ = json.NewDecoder(r.Body).Decode(&cred)
		if cred["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"token":    f.token,
			"role":     json.RawMessage(roleOps),
			"web_list": []string{"w1"},
		}})
		return
	}
	if f.expired || r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/player":
		_, _ = w.Write([]byte(`{"data":[{"_id":"p1","username":"alice"},{"_id":"p2","username":"bob"}]}`))
	case "/playhistory":
		_, _ = w.Write([]byte(`{"data":[{"_id":"h1","clientId":{"_id":"p1","username":"alice"},"game":"G","status":"win","amount":5,"createdAt":"2025-06-01T10:00:00Z"}]}`))
	case "/admin/websites":
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(f.websites)
		case http.MethodDelete:
			var in dto.IDRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			f.deleted = append(f.deleted, in.ID)
			kept := f.websites[:0]
			for _, ws := range f.websites {
				if ws.ID != in.ID {
					kept = append(kept, ws)
				}
			}
			f.websites = kept
			_, _ = w.Write([]byte(`{}`))
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "amy", "exp": exp.Unix()}).
		SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func newTestServer(t *testing.T) (http.Handler, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{
		token:    signed(t, time.Now().Add(time.Hour)),
		websites: []dto.Website{{ID: "w1", Name: "One"}, {ID: "w2", Name: "Two"}},
	}
	be := httptest.NewServer(api)
	t.Cleanup(be.Close)

	cat, err := catalog.Load(defaults.FS, defaults.Name)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	log := logger.NewDefaultLogger(logger.ModeSilence)
	con, err := backoffice.New(backoffice.Deps{
		BackendURL: be.URL,
		Sessions:   session.NewManager(session.NewMemoryStore()),
		Catalog:    cat,
		Log:        log,
	})
	if err != nil {
		t.Fatalf("console: %v", err)
	}
	sCfg := &svrcfg.SvrCfg{Log: log, Console: con, CookieTTL: time.Hour}
	if err := sCfg.Valid(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	svr := netsvr.NewChiServer(":0", netsvr.Timeouts{})
	RegisterRoutes(svr, sCfg)
	return svr.Handler(), api
}

func do(h http.Handler, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "bo_session" {
			return c
		}
	}
	return nil
}

func loginCookie(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rec := do(h, http.MethodPost, "/login", `{"username":"amy","password":"pw"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rec.Code, rec.Body.String())
	}
	c := sessionCookie(rec)
	if c == nil || c.Value == "" {
		t.Fatalf("login did not set the session cookie")
	}
	if !c.HttpOnly || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie flags: %+v", c)
	}
	return c
}

func TestLoginThenNavigate(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(h, http.MethodPost, "/login", `{"username":"amy","password":"pw"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var nav navView
	if err := json.NewDecoder(rec.Body).Decode(&nav); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if nav.Landing != "/players" || len(nav.Menu) == 0 {
		t.Fatalf("nav=%+v", nav)
	}
	c := sessionCookie(rec)

	rec = do(h, http.MethodGet, "/api/players", "", c)
	if rec.Code != http.StatusOK {
		t.Fatalf("players status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"alice"`) {
		t.Fatalf("players body=%s", rec.Body.String())
	}

	rec = do(h, http.MethodGet, "/", "", c)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/players" {
		t.Fatalf("index: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	rec = do(h, http.MethodGet, "/login", "", c)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("login view while authenticated: %d", rec.Code)
	}
}

func TestLoginRejected(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(h, http.MethodPost, "/login", `{"username":"amy","password":"nope"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if sessionCookie(rec) != nil {
		t.Fatalf("failed login must not set a cookie")
	}
	rec = do(h, http.MethodPost, "/login", `{bad`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body status=%d", rec.Code)
	}
}

func TestFormLoginRedirects(t *testing.T) {
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=amy&password=pw"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/players" {
		t.Fatalf("form login: %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestUnauthenticated(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodGet, "/api/players", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("api status=%d", rec.Code)
	}
	var body map[string]any
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["redirect"] != "/login" {
		t.Fatalf("body=%v", body)
	}

	rec = do(h, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("index: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = do(h, http.MethodGet, "/login", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login view status=%d", rec.Code)
	}

	rec = do(h, http.MethodGet, "/api/nav", "", &http.Cookie{Name: "bo_session", Value: "forged"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged cookie status=%d", rec.Code)
	}
}

func TestBackend401ClearsSession(t *testing.T) {
	h, api := newTestServer(t)
	c := loginCookie(t, h)

	api.mu.Lock()
	api.expired = true
	api.mu.Unlock()

	rec := do(h, http.MethodGet, "/api/players", "", c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
	var body map[string]any
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["redirect"] != "/login" {
		t.Fatalf("body=%v", body)
	}
	if cleared := sessionCookie(rec); cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", cleared)
	}

	// nav 不打後端，仍然 401 代表 session 已被清除
	rec = do(h, http.MethodGet, "/api/nav", "", c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("session survived backend 401: %d", rec.Code)
	}
}

func TestDeniedModule(t *testing.T) {
	h, _ := newTestServer(t)
	c := loginCookie(t, h)
	rec := do(h, http.MethodGet, "/api/users", "", c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestDeleteWebsiteNeedsConfirm(t *testing.T) {
	h, api := newTestServer(t)
	c := loginCookie(t, h)

	rec := do(h, http.MethodDelete, "/api/websites?id=w1", "", c)
	if rec.Code != http.StatusPreconditionRequired {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"confirm":true`) {
		t.Fatalf("body=%s", rec.Body.String())
	}

	rec = do(h, http.MethodDelete, "/api/websites?id=w1&confirm=true", "", c)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirmed status=%d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"w1"`) {
		t.Fatalf("deleted website still listed: %s", rec.Body.String())
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.deleted) != 1 || api.deleted[0] != "w1" {
		t.Fatalf("deleted=%v", api.deleted)
	}
}

func TestExportHistory(t *testing.T) {
	h, _ := newTestServer(t)
	c := loginCookie(t, h)

	rec := do(h, http.MethodGet, "/api/playhistory/export?format=json", "", c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "Play_History_") {
		t.Fatalf("content-disposition=%q", cd)
	}
	if rec.Header().Get("X-Export-Rows") != "1" {
		t.Fatalf("rows=%q", rec.Header().Get("X-Export-Rows"))
	}

	rec = do(h, http.MethodGet, "/api/playhistory/export?format=xls", "", c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad format status=%d", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	h, _ := newTestServer(t)
	c := loginCookie(t, h)

	rec := do(h, http.MethodPost, "/logout", "", c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if cleared := sessionCookie(rec); cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("cookie not cleared")
	}
	rec = do(h, http.MethodGet, "/api/nav", "", c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("nav after logout=%d", rec.Code)
	}
	// 重複登出也成功
	if rec := do(h, http.MethodPost, "/logout", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("second logout=%d", rec.Code)
	}
}

func TestGroupParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/playhistory?page=2&rows.p1=3&rows.=9&rows.p2=x", nil)
	gp := groupParams(req)
	if gp.Page != 2 || gp.RowPages["p1"] != 3 || gp.RowPages["p2"] != 0 || len(gp.RowPages) != 2 {
		t.Fatalf("gp=%+v", gp)
	}
}
