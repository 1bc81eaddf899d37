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

// Package guard decides, before any protected view is produced, whether the request
// belongs to a live session.
//
// The token's exp claim is read without verifying the signature: the console only
// uses it to notice expiry early. The backend remains the authority on every call.
package guard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zintix-labs/backoffice/session"
)

type State uint8

const (
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Reason explains an Unauthenticated decision.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonNoToken
	ReasonExpired
	ReasonMalformed
	ReasonNoSession
)

func (r Reason) String() string {
	switch r {
	case ReasonNoToken:
		return "no_token"
	case ReasonExpired:
		return "expired"
	case ReasonMalformed:
		return "malformed"
	case ReasonNoSession:
		return "no_session"
	default:
		return ""
	}
}

var parser = jwt.NewParser()

// Check 只看 token 本身：空字串不解碼；exp 已過期或無法解碼都視為未登入。
// 沒有 exp claim 的 token 視為有效（由後端決定）。
func Check(token string, now time.Time) (State, Reason) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Unauthenticated, ReasonNoToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Unauthenticated, ReasonMalformed
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Unauthenticated, ReasonMalformed
	}
	if exp != nil && !now.Before(exp.Time) {
		return Unauthenticated, ReasonExpired
	}
	return Authenticated, ReasonNone
}

const (
	DefaultCookie = "bo_session"
	LoginPath     = "/login"
)

type Guard struct {
	sessions *session.Manager
	cookie   string
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Guard)

func WithCookieName(name string) Option {
	return func(g *Guard) {
		if name != "" {
			g.cookie = name
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}

func New(sessions *session.Manager, opts ...Option) *Guard {
	g := &Guard{
		sessions: sessions,
		cookie:   DefaultCookie,
		now:      time.Now,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Guard) CookieName() string { return g.cookie }

// Evaluate loads the session behind sessionID and checks its token.
// An expired or malformed token clears the session from the store.
func (g *Guard) Evaluate(ctx context.Context, sessionID string) (State, Reason, *session.Session, error) {
	if sessionID == "" {
		return Unauthenticated, ReasonNoToken, nil, nil
	}
	s, err := g.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return Unauthenticated, ReasonNoSession, nil, nil
		}
		return Unknown, ReasonNone, nil, err
	}
	st, why := Check(s.Token, g.now())
	if st != Authenticated {
		if err := g.sessions.Logout(ctx, sessionID); err != nil {
			g.log.Warn("clear session failed", slog.String("reason", why.String()), slog.Any("err", err))
		}
		return st, why, nil, nil
	}
	return st, why, s, nil
}

// SessionID returns the session id carried by r's cookie, or "".
func (g *Guard) SessionID(r *http.Request) string {
	c, err := r.Cookie(g.cookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// Middleware protects every route it wraps. Nothing is written for a protected route
// until the state is decided.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, why, s, err := g.Evaluate(r.Context(), g.SessionID(r))
		if err != nil {
			g.log.Error("session lookup failed", slog.Any("err", err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session store unavailable"})
			return
		}
		if st != Authenticated {
			g.Deny(w, r, why)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

// Deny answers an unauthenticated request: API routes get 401 with a redirect hint,
// page routes get 303 to the login view. The session cookie is cleared either way.
func (g *Guard) Deny(w http.ResponseWriter, r *http.Request, why Reason) {
	g.ClearCookie(w)
	if IsAPI(r) {
		msg := "not authenticated"
		if why == ReasonExpired {
			msg = "session expired"
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msg, "redirect": LoginPath})
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (g *Guard) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func IsAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
