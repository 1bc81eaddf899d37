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

// Package svrcfg 是注入 server 的設定。檔案、環境變數、flag 的讀取由 cmd 層負責。
package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/backoffice"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/guard"
	"github.com/zintix-labs/backoffice/server/logger"
	"github.com/zintix-labs/backoffice/server/netsvr"
	"github.com/zintix-labs/backoffice/server/netsvr/middleware"
)

type SvrCfg struct {
	Log     *slog.Logger
	Addr    string
	Console *backoffice.Console
	Guard   *guard.Guard

	// CookieSecure sets the Secure flag on the session cookie (HTTPS deployments).
	CookieSecure bool
	// CookieTTL is the cookie Max-Age; zero makes it a browser-session cookie.
	CookieTTL time.Duration

	Compress        middleware.CompressConfig
	DisableCompress bool
	Timeouts        netsvr.Timeouts
	ShutdownTimeout time.Duration
}

func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeDev)
	}
	if sc.Console == nil {
		return errs.NewFatal("console is required")
	}
	if sc.Guard == nil {
		sc.Guard = guard.New(sc.Console.Sessions(), guard.WithLogger(sc.Log))
	}
	if sc.Addr == "" {
		sc.Addr = netsvr.DefaultAddr
	}
	if sc.Compress == (middleware.CompressConfig{}) {
		sc.Compress = middleware.DefaultCompressConfig
	}
	if sc.CookieTTL < 0 {
		return errs.NewWarn("cookie ttl must not be negative")
	}
	return nil
}
