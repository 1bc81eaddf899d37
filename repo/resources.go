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

package repo

import (
	"net/http"

	"github.com/zintix-labs/backoffice/dto"
)

// admin API paths
const (
	PathUser          = "/user"
	PathUserDetail    = "/user/detail"
	PathRole          = "/role"
	PathWhitelist     = "/whitelist"
	PathPlayer        = "/player"
	PathPlayerDetail  = "/player/detail"
	PathPlayHistory   = "/playhistory"
	PathTransaction   = "/playertransction" // backend spelling
	PathWebsite       = "/admin/websites"
	PathWebsiteDetail = "/admin/websites/getwebsiteinfo"
)

func Users(do Doer) *Resource[dto.User] {
	return &Resource[dto.User]{do: do, path: PathUser, detailPath: PathUserDetail, updateMethod: http.MethodPatch, ops: CRUD}
}

func Roles(do Doer) *Resource[dto.RoleOption] {
	return &Resource[dto.RoleOption]{do: do, path: PathRole, ops: OpList}
}

func Whitelist(do Doer) *Resource[dto.WhitelistEntry] {
	return &Resource[dto.WhitelistEntry]{do: do, path: PathWhitelist, updateMethod: http.MethodPatch, ops: OpList | OpCreate | OpUpdate | OpDelete}
}

func Players(do Doer) *Resource[dto.Player] {
	return &Resource[dto.Player]{do: do, path: PathPlayer, detailPath: PathPlayerDetail, ops: ReadOnly}
}

func PlayHistory(do Doer) *Resource[dto.PlayRecord] {
	return &Resource[dto.PlayRecord]{do: do, path: PathPlayHistory, ops: OpList}
}

func Transactions(do Doer) *Resource[dto.TransactionRecord] {
	return &Resource[dto.TransactionRecord]{do: do, path: PathTransaction, ops: OpList}
}

func Websites(do Doer) *Resource[dto.Website] {
	return &Resource[dto.Website]{do: do, path: PathWebsite, detailPath: PathWebsiteDetail, updateMethod: http.MethodPut, ops: CRUD}
}
