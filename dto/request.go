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

package dto

import (
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/zintix-labs/backoffice/errs"
)

// IDRequest is the body of every delete call.
type IDRequest struct {
	ID string `json:"id"`
}

type UserCreate struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (u *UserCreate) Valid() error {
	u.Username = strings.TrimSpace(u.Username)
	u.Name = strings.TrimSpace(u.Name)
	u.Role = strings.TrimSpace(u.Role)
	switch {
	case u.Username == "":
		return errs.NewWarn("username is required")
	case u.Name == "":
		return errs.NewWarn("name is required")
	case u.Password == "":
		return errs.NewWarn("password is required")
	case u.Role == "":
		return errs.NewWarn("role is required")
	}
	return nil
}

type UserUpdate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (u *UserUpdate) Valid() error {
	u.ID = strings.TrimSpace(u.ID)
	u.Name = strings.TrimSpace(u.Name)
	u.Role = strings.TrimSpace(u.Role)
	if u.ID == "" {
		return errs.NewWarn("id is required")
	}
	if u.Name == "" {
		return errs.NewWarn("name is required")
	}
	return nil
}

type WhitelistCreate struct {
	IP          string `json:"ip"`
	Description string `json:"description"`
}

// Valid accepts a single address or a CIDR prefix.
func (w *WhitelistCreate) Valid() error {
	w.IP = strings.TrimSpace(w.IP)
	w.Description = strings.TrimSpace(w.Description)
	if w.IP == "" {
		return errs.NewWarn("ip is required")
	}
	if _, err := netip.ParseAddr(w.IP); err == nil {
		return nil
	}
	if _, err := netip.ParsePrefix(w.IP); err == nil {
		return nil
	}
	return errs.NewWithExtra(errs.Warn, "invalid ip or cidr", w.IP)
}

type WebsiteCreate struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Links []Link `json:"link_list"`
}

func (w *WebsiteCreate) Valid() error {
	w.Name = strings.TrimSpace(w.Name)
	w.URL = strings.TrimSpace(w.URL)
	w.Links = CleanLinks(w.Links)
	if w.Name == "" {
		return errs.NewWarn("name is required")
	}
	if w.URL != "" {
		if u, err := url.Parse(w.URL); err != nil || u.Host == "" {
			return errs.NewWithExtra(errs.Warn, "invalid website url", w.URL)
		}
	}
	return nil
}

type WebsiteUpdate struct {
	ID string `json:"id"`
	WebsiteCreate
}

func (w *WebsiteUpdate) Valid() error {
	w.ID = strings.TrimSpace(w.ID)
	if w.ID == "" {
		return errs.NewWarn("id is required")
	}
	return w.WebsiteCreate.Valid()
}

// HistoryQuery is the play-history search form. Empty fields are not sent.
type HistoryQuery struct {
	Name   string `json:"name,omitempty"`
	Game   string `json:"game,omitempty"`
	Status string `json:"status,omitempty"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

// TransactionQuery is the transaction search form.
type TransactionQuery struct {
	Name  string `json:"name,omitempty"`
	Type  string `json:"type,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

const DateLayout = "2006-01-02"

func (q HistoryQuery) Values(now time.Time) (url.Values, error) {
	v := url.Values{}
	set(v, "name", q.Name)
	set(v, "game", q.Game)
	set(v, "status", q.Status)
	if err := dateRange(v, q.Start, q.End, now); err != nil {
		return nil, err
	}
	return v, nil
}

func (q TransactionQuery) Values(now time.Time) (url.Values, error) {
	v := url.Values{}
	set(v, "name", q.Name)
	set(v, "type", q.Type)
	if err := dateRange(v, q.Start, q.End, now); err != nil {
		return nil, err
	}
	return v, nil
}

func set(v url.Values, k, val string) {
	if val = strings.TrimSpace(val); val != "" {
		v.Set(k, val)
	}
}

// dateRange 驗證日期格式；end 未填時預設為今天（UTC）。
func dateRange(v url.Values, start, end string, now time.Time) error {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if end == "" {
		end = now.UTC().Format(DateLayout)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return errs.NewWithExtra(errs.Warn, "invalid end date", end)
	}
	if start != "" {
		s, err := time.Parse(DateLayout, start)
		if err != nil {
			return errs.NewWithExtra(errs.Warn, "invalid start date", start)
		}
		if s.After(e) {
			return errs.NewWarn("start date is after end date")
		}
		v.Set("start", start)
	}
	v.Set("end", end)
	return nil
}
