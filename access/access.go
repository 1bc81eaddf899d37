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

// Package access decides which navigation destinations and row actions a staff member
// sees, purely from the role descriptor cached in their session.
//
// This is a UX filter. It is not access control: the backend enforces authorization on
// every call and a denial here never protects anything on its own. Every decision fails
// closed when the role is missing, malformed, or silent about a module.
package access

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zintix-labs/backoffice/catalog"
	"github.com/zintix-labs/backoffice/errs"
)

// Module keys used for permission lookups.
const (
	ModuleUser        = "user"
	ModulePlayer      = "player"
	ModulePlayHistory = "playhistory"
	ModuleWhitelist   = "whitelist"
	ModuleWebsite     = "website"
	// Transactions share the play history grant.
	ModuleTransaction = ModulePlayHistory
)

// ErrMalformedRole is returned by ParseRole; callers treat it as "no permissions".
var ErrMalformedRole = errs.NewWarn("malformed role descriptor")

type Verb uint8

const (
	Read Verb = iota
	Create
	Update
	Delete
)

func (v Verb) String() string {
	switch v {
	case Read:
		return "read"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("verb(%d)", uint8(v))
	}
}

// Grant 對應後端 permission map 中單一 module 的四個旗標（以 HTTP method 命名）。
type Grant struct {
	Read   bool `json:"GET"`
	Create bool `json:"POST"`
	Update bool `json:"PATCH"`
	Delete bool `json:"DELETE"`
}

func (g Grant) Allows(v Verb) bool {
	switch v {
	case Read:
		return g.Read
	case Create:
		return g.Create
	case Update:
		return g.Update
	case Delete:
		return g.Delete
	default:
		return false
	}
}

// Role 是登入時由後端回傳、快取在 session 內的角色描述。
// 登入後不會刷新：後端的權限異動要等重新登入才生效。
type Role struct {
	ID           string           `json:"_id"`
	Name         string           `json:"role"`
	Unrestricted bool             `json:"isSuperAdmin"`
	Permissions  map[string]Grant `json:"permission"`
}

// ParseRole validates a raw role blob once, at session load time.
// Module keys are normalized to lower case.
func ParseRole(raw []byte) (*Role, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: empty", ErrMalformedRole)
	}
	if raw[0] != '{' {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedRole)
	}
	r := new(Role)
	if err := json.Unmarshal(raw, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRole, err)
	}
	if len(r.Permissions) > 0 {
		norm := make(map[string]Grant, len(r.Permissions))
		for k, g := range r.Permissions {
			norm[strings.ToLower(strings.TrimSpace(k))] = g
		}
		r.Permissions = norm
	}
	return r, nil
}

// CanAccess reports whether role may use verb on module.
// A nil role or an absent module entry denies everything.
func CanAccess(role *Role, module string, verb Verb) bool {
	if role == nil {
		return false
	}
	if role.Unrestricted {
		return true
	}
	g, ok := role.Permissions[strings.ToLower(module)]
	if !ok {
		return false
	}
	return g.Allows(verb)
}

// Actions 是某個 CRUD 畫面上可見的操作。
type Actions struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
	// Column is true when the per-row action column is rendered at all.
	Column bool `json:"column"`
}

func ActionsFor(role *Role, module string) Actions {
	a := Actions{
		View:   CanAccess(role, module, Read),
		Create: CanAccess(role, module, Create),
		Edit:   CanAccess(role, module, Update),
		Delete: CanAccess(role, module, Delete),
	}
	a.Column = a.Edit || a.Delete
	return a
}

// Require returns a Denied error when role lacks verb on module.
func Require(role *Role, module string, verb Verb) error {
	if CanAccess(role, module, verb) {
		return nil
	}
	return errs.Deniedf("no %s permission on %s", verb, module)
}

// Menu filters the catalog down to the destinations role may read, keeping catalog order.
func Menu(role *Role, cat *catalog.Catalog) []catalog.Entry {
	if cat == nil {
		return nil
	}
	all := cat.All()
	out := make([]catalog.Entry, 0, len(all))
	for _, e := range all {
		if CanAccess(role, e.Perm, Read) {
			out = append(out, e)
		}
	}
	return out
}

// Landing 回傳登入後的預設落點：選單中的第一個目的地；沒有任何可讀目的地時回傳空字串。
func Landing(role *Role, cat *catalog.Catalog) string {
	m := Menu(role, cat)
	if len(m) == 0 {
		return ""
	}
	return m[0].Path
}
