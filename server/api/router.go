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
	"log/slog"

	"github.com/zintix-labs/backoffice/server/netsvr"
	"github.com/zintix-labs/backoffice/server/netsvr/middleware"
	"github.com/zintix-labs/backoffice/server/svrcfg"
)

// RegisterRoutes 註冊
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) {
	h := newHandler(sCfg)
	registerMiddleware(svr, sCfg) // 1. 註冊 middleware
	registerPages(svr, h)         // 2. 登入 / 登出 / 首頁
	registerAPI(svr, h)           // 3. 受保護的 console api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	if !sCfg.DisableCompress {
		svr.Use(middleware.Compression(sCfg.Compress))
	} else {
		sCfg.Log.Debug("response compression disabled", slog.String("addr", sCfg.Addr))
	}
}

func registerPages(svr netsvr.NetSvr, h *handler) {
	svr.Get("/", h.Index)
	svr.Get("/login", h.LoginView)
	svr.Post("/login", h.Login)
	svr.Post("/logout", h.Logout)
}

// 註冊 api：全部經過 guard
func registerAPI(svr netsvr.NetSvr, h *handler) {
	svr.Group("/api", func(api netsvr.NetRouter) {
		p := api.With(h.guard.Middleware)
		p.Get("/nav", h.Nav)

		p.Get("/users", h.Users)
		p.Get("/users/{id}", h.User)
		p.Post("/users", h.CreateUser)
		p.Patch("/users", h.UpdateUser)
		p.Delete("/users", h.DeleteUser)
		p.Get("/roles", h.Roles)

		p.Get("/whitelist", h.Whitelist)
		p.Post("/whitelist", h.CreateWhitelist)
		p.Delete("/whitelist", h.DeleteWhitelist)

		p.Get("/players", h.Players)
		p.Get("/players/{id}", h.Player)

		p.Get("/playhistory", h.History)
		p.Get("/playhistory/export", h.ExportHistory)
		p.Get("/transactions", h.Transactions)
		p.Get("/transactions/export", h.ExportTransactions)

		p.Get("/websites", h.Websites)
		p.Get("/websites/{id}", h.Website)
		p.Post("/websites", h.CreateWebsite)
		p.Put("/websites", h.UpdateWebsite)
		p.Delete("/websites", h.DeleteWebsite)
	})
}
