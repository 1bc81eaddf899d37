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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/server/api"
	"github.com/zintix-labs/backoffice/server/app"
	"github.com/zintix-labs/backoffice/server/netsvr"
	"github.com/zintix-labs/backoffice/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrCfg（包含必要依賴，例如 logger、Console）。
//  2. 建立 HTTP server（netsvr）。
//  3. 註冊路由與 middleware（api.RegisterRoutes）。
//  4. 啟動 app 並在停止時執行 hooks（關閉 Redis、log 檔等）。
//
// Run 不讀檔案也不讀環境變數；所有依賴都透過 SvrCfg 注入。
func Run(ctx context.Context, sCfg *svrcfg.SvrCfg, hooks ...func(context.Context) error) error {
	if err := sCfg.Valid(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(ctx, sCfg, netsvr.NewChiServer(sCfg.Addr, sCfg.Timeouts), hooks...)
}

// RunWithSvr 與 Run 相同，但允許呼叫端注入自訂的 NetSvr。
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, hooks ...func(context.Context) error) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("default server is not ready")
	}

	// 註冊 Api
	api.RegisterRoutes(svr, sCfg)

	// 運行
	a := app.NewWith(svr)
	a.SetLogger(sCfg.Log)
	a.SetShutdownTimeout(sCfg.ShutdownTimeout)
	for _, h := range hooks {
		a.OnShutdown(h)
	}
	sCfg.Log.Info("[backoffice] listening", slog.String("addr", svr.Address()))
	if err := a.RunContext(ctx); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}
