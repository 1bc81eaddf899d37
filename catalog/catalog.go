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

// Package catalog 持有 console 的導覽目錄（navigation catalog）。
//
// 目錄是一份有序、靜態的 {module, label, path} 清單；側邊選單由 access.Menu 依角色權限過濾它。
// 目錄在啟動時組裝完成後 Freeze，之後只讀。
package catalog

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/backoffice/errs"
	"gopkg.in/yaml.v3"
)

var (
	ErrDupModule = errs.NewFatal("duplicate module")
	ErrDupPath   = errs.NewFatal("duplicate path")
	ErrFrozen    = errs.NewWarn("can not register when catalog already frozen")
)

// Entry 是一個導覽目的地。
//
// Module 是目的地的唯一 key；Perm 是權限查詢用的 module key，未填時等於 Module。
// 兩者分開是因為多個目的地可以共用同一組權限（例如交易紀錄沿用 playhistory）。
type Entry struct {
	Module string `yaml:"module" json:"module"`
	Perm   string `yaml:"perm"   json:"perm,omitempty"`
	Label  string `yaml:"label"  json:"label"`
	Path   string `yaml:"path"   json:"path"`
}

type file struct {
	Entries []Entry `yaml:"entries" json:"entries"`
}

type Catalog struct {
	byModule map[string]Entry
	byPath   map[string]Entry
	order    []string // module keys in registration order
	frozen   bool
}

func New() *Catalog {
	return &Catalog{
		byModule: map[string]Entry{},
		byPath:   map[string]Entry{},
		order:    make([]string, 0, 8),
	}
}

// Register 以原子方式加入一批 entries：任何一筆不合法，整批都不會寫入。
func (c *Catalog) Register(ents ...Entry) error {
	if c.frozen {
		return ErrFrozen
	}
	seenMod := map[string]struct{}{}
	seenPath := map[string]struct{}{}
	for i := range ents {
		ents[i].Module = strings.ToLower(strings.TrimSpace(ents[i].Module))
		ents[i].Label = strings.TrimSpace(ents[i].Label)
		ents[i].Path = strings.TrimSpace(ents[i].Path)
		ents[i].Perm = strings.ToLower(strings.TrimSpace(ents[i].Perm))
		if ents[i].Perm == "" {
			ents[i].Perm = ents[i].Module
		}
		e := ents[i]
		if e.Module == "" {
			return errs.NewFatal("module required")
		}
		if e.Label == "" {
			return errs.Fatalf("label required for module %q", e.Module)
		}
		if err := validPath(e.Path); err != nil {
			return err
		}
		if _, ok := c.byModule[e.Module]; ok {
			return ErrDupModule
		}
		if _, ok := seenMod[e.Module]; ok {
			return ErrDupModule
		}
		if _, ok := c.byPath[e.Path]; ok {
			return ErrDupPath
		}
		if _, ok := seenPath[e.Path]; ok {
			return ErrDupPath
		}
		seenMod[e.Module] = struct{}{}
		seenPath[e.Path] = struct{}{}
	}
	for _, e := range ents {
		c.byModule[e.Module] = e
		c.byPath[e.Path] = e
		c.order = append(c.order, e.Module)
	}
	return nil
}

func (c *Catalog) Get(module string) (Entry, bool) {
	e, ok := c.byModule[strings.ToLower(strings.TrimSpace(module))]
	return e, ok
}

func (c *Catalog) ByPath(path string) (Entry, bool) {
	e, ok := c.byPath[path]
	return e, ok
}

// All 依註冊順序回傳所有 entries（複本）。
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, m := range c.order {
		out = append(out, c.byModule[m])
	}
	return out
}

func (c *Catalog) Len() int { return len(c.order) }

func (c *Catalog) Freeze() { c.frozen = true }

func (c *Catalog) IsFrozen() bool { return c.frozen }

// Load 從 fs.FS 讀取一份 YAML/JSON 目錄檔並回傳已 Freeze 的 Catalog。
func Load(fsys fs.FS, name string) (*Catalog, error) {
	if fsys == nil {
		return nil, errs.NewFatal("nil catalog fs")
	}
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "read catalog file")
	}
	f := new(file)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, f); err != nil {
			return nil, errs.Wrap(err, "failed to unmarshal yaml")
		}
	case ".json":
		if err := json.Unmarshal(raw, f); err != nil {
			return nil, errs.Wrap(err, "failed to unmarshal json")
		}
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported catalog format: %q", name))
	}
	if len(f.Entries) == 0 {
		return nil, errs.Fatalf("catalog %q has no entries", name)
	}
	c := New()
	if err := c.Register(f.Entries...); err != nil {
		return nil, err
	}
	c.Freeze()
	return c, nil
}

func validPath(p string) error {
	if p == "" {
		return errs.NewFatal("empty path")
	}
	if !strings.HasPrefix(p, "/") {
		return errs.Fatalf("invalid path %q: must start with /", p)
	}
	if p == "/" || p == "/login" {
		return errs.Fatalf("invalid path %q: reserved", p)
	}
	if strings.ContainsAny(p, " ?#") {
		return errs.Fatalf("invalid path %q", p)
	}
	return nil
}
