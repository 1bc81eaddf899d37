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

// Package dto 定義 admin API 的資料紀錄。欄位名稱跟著後端走（_id、clientId、link_list...）。
package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type User struct {
	ID       string  `json:"_id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Role     RoleRef `json:"role,omitempty"`
}

// RoleRef is a user's role id. The backend sends either the id string or the
// populated role object; both decode to the id.
type RoleRef string

func (r *RoleRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RoleRef(s)
		return nil
	}
	var obj struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = RoleRef(obj.ID)
	return nil
}

// RoleOption is a role as listed by GET /role, used to fill the user form.
type RoleOption struct {
	ID           string `json:"_id"`
	Name         string `json:"role"`
	Unrestricted bool   `json:"isSuperAdmin"`
}

type Player struct {
	ID       string  `json:"_id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Balance  float64 `json:"balance"`
}

// UnmarshalJSON 接受 populate 過的物件，也接受未 populate 的純 id 字串。
func (c *Client) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*c = Client{}
		return nil
	case b[0] == '"':
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*c = Client{ID: id}
		return nil
	}
	type plain Client
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Client(p)
	return nil
}

// Client is the player summary embedded in history and transaction rows.
type Client struct {
	ID       string  `json:"_id"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

type PlayRecord struct {
	ID        string  `json:"_id"`
	Client    Client  `json:"clientId"`
	Game      string  `json:"game"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	CreatedAt Time    `json:"createdAt"`
}

// 交易類型
const (
	TxDeposit  = "Deposit"
	TxWithdraw = "Withdraw"
)

type TransactionRecord struct {
	ID        string  `json:"_id"`
	Client    Client  `json:"clientId"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	CreatedAt Time    `json:"createdAt"`
}

type WhitelistEntry struct {
	ID          string `json:"_id"`
	IP          string `json:"ip"`
	Description string `json:"description"`
}

type Website struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Links     []Link `json:"link_list"`
	CreatedAt Time   `json:"createdAt,omitzero"`
}

type Link struct {
	ID         string `json:"_id,omitempty"`
	URL        string `json:"url"`
	Status     bool   `json:"status"`
	OnlyMobile bool   `json:"only_mobile"`
}

// CleanLinks trims every URL and drops rows left blank.
func CleanLinks(in []Link) []Link {
	out := make([]Link, 0, len(in))
	for _, l := range in {
		l.URL = strings.TrimSpace(l.URL)
		if l.URL == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Time 接受後端常見的幾種時間字串；空字串或 null 為零值。
type Time struct{ time.Time }

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Time) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if b[0] != '"' {
		// epoch milliseconds
		var ms int64
		if err := json.Unmarshal(b, &ms); err != nil {
			return err
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timeLayouts {
		v, err := time.Parse(layout, s)
		if err == nil {
			t.Time = v
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
