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

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zintix-labs/backoffice/errs"
)

// Credentials is the login form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult 是 POST /auth/login 的 data 欄位。role 保持原始 JSON，交給 session 驗證。
type LoginResult struct {
	Token    string          `json:"token"`
	Role     json.RawMessage `json:"role"`
	Websites []string        `json:"web_list,omitempty"`
}

// Login exchanges credentials for a token. A 401 here means bad credentials,
// so it is reported as a Warn error and the unauthorized hook is not involved.
func (c *Client) Login(ctx context.Context, cred Credentials) (*LoginResult, error) {
	cred.Username = strings.TrimSpace(cred.Username)
	if cred.Username == "" || cred.Password == "" {
		return nil, errs.NewWarn("username and password are required")
	}
	anon := WithToken(ctx, "")
	raw, err := c.withoutHook().Do(anon, Request{Method: http.MethodPost, Path: "/auth/login", Body: cred})
	if err != nil {
		if IsUnauthorized(err) {
			return nil, errs.NewWarn("login failed")
		}
		return nil, err
	}
	res, err := DecodeOne[LoginResult](raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.Token) == "" {
		return nil, errs.NewWarn("login failed: no token in response")
	}
	return res, nil
}

func (c *Client) withoutHook() *Client {
	cp := *c
	cp.onUnauthorized = nil
	return &cp
}
