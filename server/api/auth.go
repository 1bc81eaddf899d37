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
	"net/http"
	"strings"

	"github.com/zintix-labs/backoffice/backend"
	"github.com/zintix-labs/backoffice/catalog"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/guard"
	"github.com/zintix-labs/backoffice/session"
)

var errNoScreen = errs.NewDenied("no screen available for this role")

type loginView struct {
	Action string   `json:"action"`
	Fields []string `json:"fields"`
}

type navView struct {
	Landing string          `json:"landing"`
	Menu    []catalog.Entry `json:"menu"`
}

// Index 導向登入後的第一個畫面，未登入則導向 /login。
func (h *handler) Index(w http.ResponseWriter, r *http.Request) {
	st, why, s, err := h.guard.Evaluate(r.Context(), h.guard.SessionID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if st != guard.Authenticated {
		h.guard.Deny(w, r, why)
		return
	}
	landing := h.con.Landing(s)
	if landing == "" {
		h.fail(w, r, errNoScreen)
		return
	}
	http.Redirect(w, r, landing, http.StatusSeeOther)
}

// LoginView is the login form model; an authenticated visitor is sent home.
func (h *handler) LoginView(w http.ResponseWriter, r *http.Request) {
	st, _, _, err := h.guard.Evaluate(r.Context(), h.guard.SessionID(r))
	if err == nil && st == guard.Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.ok(w, loginView{Action: guard.LoginPath, Fields: []string{"username", "password"}})
}

// Login 接受 JSON 或 HTML form。成功時發 session cookie，
// form 送出的回 303 到落點，JSON 回落點與選單。
func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	var cred backend.Credentials
	form := isForm(r)
	if form {
		if err := r.ParseForm(); err != nil {
			h.fail(w, r, errs.WrapAs(errs.Warn, err, "invalid form"))
			return
		}
		cred.Username = r.PostForm.Get("username")
		cred.Password = r.PostForm.Get("password")
	} else if err := decode(w, r, &cred); err != nil {
		h.fail(w, r, err)
		return
	}

	s, err := h.con.Login(r.Context(), cred, h.guard.SessionID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.setCookie(w, s.ID)

	landing := h.con.Landing(s)
	if landing == "" {
		landing = "/"
	}
	if form {
		http.Redirect(w, r, landing, http.StatusSeeOther)
		return
	}
	menu, _ := h.con.Nav(session.WithSession(r.Context(), s))
	h.ok(w, navView{Landing: landing, Menu: menu})
}

// Logout 永遠成功：沒有 session 也一樣清 cookie。
func (h *handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid := h.guard.SessionID(r); sid != "" {
		if err := h.con.Logout(r.Context(), sid); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	h.guard.ClearCookie(w)
	if isForm(r) {
		http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
		return
	}
	h.ok(w, map[string]string{"redirect": guard.LoginPath})
}

func (h *handler) Nav(w http.ResponseWriter, r *http.Request) {
	menu, err := h.con.Nav(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, _ := session.FromContext(r.Context())
	h.ok(w, navView{Landing: h.con.Landing(s), Menu: menu})
}

func (h *handler) setCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.guard.CookieName(),
		Value:    sid,
		Path:     "/",
		MaxAge:   h.ttl,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}
