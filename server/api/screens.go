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

	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/server/netsvr"
)

// ============================================================
// ** users **
// ============================================================

func (h *handler) Users(w http.ResponseWriter, r *http.Request) {
	sc, err := h.con.Users(r.Context(), listParams(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, sc)
}

func (h *handler) User(w http.ResponseWriter, r *http.Request) {
	u, err := h.con.User(r.Context(), netsvr.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, u)
}

func (h *handler) Roles(w http.ResponseWriter, r *http.Request) {
	rs, err := h.con.Roles(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rs)
}

func (h *handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in dto.UserCreate
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.con.CreateUser(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func (h *handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in dto.UserUpdate
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.con.UpdateUser(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func (h *handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, confirm := deleteParams(r)
	res, err := h.con.DeleteUser(r.Context(), id, confirm)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

// ============================================================
// ** whitelist **
// ============================================================

func (h *handler) Whitelist(w http.ResponseWriter, r *http.Request) {
	sc, err := h.con.Whitelist(r.Context(), listParams(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, sc)
}

func (h *handler) CreateWhitelist(w http.ResponseWriter, r *http.Request) {
	var in dto.WhitelistCreate
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.con.CreateWhitelist(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func (h *handler) DeleteWhitelist(w http.ResponseWriter, r *http.Request) {
	id, confirm := deleteParams(r)
	res, err := h.con.DeleteWhitelist(r.Context(), id, confirm)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

// ============================================================
// ** players **
// ============================================================

func (h *handler) Players(w http.ResponseWriter, r *http.Request) {
	sc, err := h.con.Players(r.Context(), listParams(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, sc)
}

func (h *handler) Player(w http.ResponseWriter, r *http.Request) {
	p, err := h.con.Player(r.Context(), netsvr.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, p)
}

// ============================================================
// ** websites **
// ============================================================

func (h *handler) Websites(w http.ResponseWriter, r *http.Request) {
	sc, err := h.con.Websites(r.Context(), listParams(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, sc)
}

func (h *handler) Website(w http.ResponseWriter, r *http.Request) {
	site, err := h.con.Website(r.Context(), netsvr.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, site)
}

func (h *handler) CreateWebsite(w http.ResponseWriter, r *http.Request) {
	var in dto.WebsiteCreate
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.con.CreateWebsite(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func (h *handler) UpdateWebsite(w http.ResponseWriter, r *http.Request) {
	var in dto.WebsiteUpdate
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.con.UpdateWebsite(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

func (h *handler) DeleteWebsite(w http.ResponseWriter, r *http.Request) {
	id, confirm := deleteParams(r)
	res, err := h.con.DeleteWebsite(r.Context(), id, confirm)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}
