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

// Package backend 是對 admin API 的唯一 HTTP 出口。
//
// 每個 request 都帶上 context 裡的 bearer token；401 會先觸發 OnUnauthorized（登出），
// 再把錯誤交還給呼叫端。回應的 envelope 形狀在這一層統一（見 DecodeList / DecodeOne）。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zintix-labs/backoffice/errs"
)

// ErrUnauthorized is wrapped by every error produced from a backend 401.
var ErrUnauthorized = errs.NewAuth("backend rejected the session")

// StatusError is a non-2xx, non-401 backend answer.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend status %d", e.Status)
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

// TransportError wraps a failure to reach the backend at all.
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return "backend unreachable: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Request describes one backend call. Body, when non-nil, is sent as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

const maxBody = 16 << 20

type Client struct {
	base           *url.URL
	hc             *http.Client
	timeout        time.Duration
	onUnauthorized func(ctx context.Context)
	log            *slog.Logger
}

type Option func(*Client)

// WithTimeout bounds every request. Zero keeps only the caller's context deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// OnUnauthorized registers the hook run on every 401, before the error is returned.
func OnUnauthorized(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errs.NewWithExtra(errs.Fatal, "invalid backend base url", baseURL)
	}
	c := &Client{
		base: u,
		hc:   &http.Client{},
		log:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

// Do sends req and returns the raw response body of a 2xx answer.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	hreq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.hc.Do(hreq)
	if err != nil {
		if ce := ctx.Err(); ce != nil {
			return nil, ce
		}
		return nil, errs.Wrap(&TransportError{Err: err}, "backend request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errs.Wrap(err, "read backend response")
	}
	c.log.Debug("backend",
		slog.String("method", hreq.Method),
		slog.String("path", req.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return nil, fmt.Errorf("%w: %s %s", ErrUnauthorized, hreq.Method, req.Path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Status: resp.StatusCode, Message: messageOf(raw)}
	}
	return raw, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errs.Wrap(err, "encode backend request")
		}
		body = bytes.NewReader(buf)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errs.Wrap(err, "build backend request")
	}
	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if tok := TokenFrom(ctx); tok != "" {
		hreq.Header.Set("Authorization", "Bearer "+tok)
	}
	return hreq, nil
}

// messageOf pulls {"message"} (or {"error"}) out of an error body.
func messageOf(raw []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &m) == nil {
		if m.Message != "" {
			return m.Message
		}
		return m.Error
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// IsUnauthorized reports whether err came from a backend 401.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

type tokenKey struct{}

// WithToken attaches the bearer token used by Do.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey{}).(string)
	return s
}
