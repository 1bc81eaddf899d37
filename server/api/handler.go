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
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/backoffice"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/guard"
	"github.com/zintix-labs/backoffice/server/httperr"
	"github.com/zintix-labs/backoffice/server/svrcfg"
)

// maxBody 限制 request body，console 的表單都很小
const maxBody = 1 << 20

type handler struct {
	con    *backoffice.Console
	guard  *guard.Guard
	log    *slog.Logger
	secure bool
	ttl    int
}

func newHandler(sCfg *svrcfg.SvrCfg) *handler {
	return &handler{
		con:    sCfg.Console,
		guard:  sCfg.Guard,
		log:    sCfg.Log,
		secure: sCfg.CookieSecure,
		ttl:    int(sCfg.CookieTTL.Seconds()),
	}
}

// fail 寫出錯誤。401 代表 session 已經被清掉，cookie 也一起清。
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := httperr.StatusCode(err)
	if code == http.StatusUnauthorized {
		h.guard.ClearCookie(w)
	}
	if code >= http.StatusInternalServerError {
		httperr.Log(h.log, r.Method+" "+r.URL.Path, err)
	}
	httperr.Errs(w, err)
}

func (h *handler) ok(w http.ResponseWriter, v any) {
	httperr.JSON(w, http.StatusOK, v)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		return errs.WrapAs(errs.Warn, err, "invalid request body")
	}
	return nil
}

func listParams(r *http.Request) backoffice.ListParams {
	q := r.URL.Query()
	return backoffice.ListParams{
		Page:   atoi(q.Get("page")),
		Search: q.Get("q"),
	}
}

// rowPrefix 是分組畫面中各玩家內層分頁的 query 前綴：rows.<clientId>=N
const rowPrefix = "rows."

func groupParams(r *http.Request) backoffice.GroupParams {
	q := r.URL.Query()
	gp := backoffice.GroupParams{Page: atoi(q.Get("page"))}
	for k, v := range q {
		id, ok := strings.CutPrefix(k, rowPrefix)
		if !ok || id == "" || len(v) == 0 {
			continue
		}
		if gp.RowPages == nil {
			gp.RowPages = make(map[string]int)
		}
		gp.RowPages[id] = atoi(v[0])
	}
	return gp
}

// deleteParams reads ?id=...&confirm=true.
func deleteParams(r *http.Request) (string, bool) {
	q := r.URL.Query()
	ok, _ := strconv.ParseBool(q.Get("confirm"))
	return strings.TrimSpace(q.Get("id")), ok
}

// atoi 解析失敗回 0，由 view 層修正成第一頁
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
