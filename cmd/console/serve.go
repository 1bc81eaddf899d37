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

package main

import (
	"github.com/spf13/cobra"
	"github.com/zintix-labs/backoffice/guard"
	"github.com/zintix-labs/backoffice/server"
	"github.com/zintix-labs/backoffice/server/netsvr"
	"github.com/zintix-labs/backoffice/server/netsvr/middleware"
	"github.com/zintix-labs/backoffice/server/svrcfg"
)

func newServeCmd(load configFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := load(cmd)
			if err != nil {
				return err
			}
			log := buildLogger(c)
			ctx := cmd.Context()

			sessions, closeStore, err := buildSessions(ctx, c, log.Logger)
			if err != nil {
				return err
			}
			con, err := buildConsole(c, sessions, log.Logger)
			if err != nil {
				return err
			}
			compress := middleware.DefaultCompressConfig
			if c.ZstdLevel != "" {
				compress.ZstdLevel = middleware.ParseZstdLevel(c.ZstdLevel)
			}

			sCfg := &svrcfg.SvrCfg{
				Log:             log.Logger,
				Addr:            c.Addr,
				Console:         con,
				Guard:           guard.New(sessions, guard.WithLogger(log.Logger)),
				CookieSecure:    c.CookieSecure,
				CookieTTL:       c.SessionTTL,
				Compress:        compress,
				DisableCompress: c.DisableCompress,
				Timeouts:        netsvr.Timeouts{},
			}
			hooks := []closer{}
			if closeStore != nil {
				hooks = append(hooks, closeStore)
			}
			hooks = append(hooks, log.Shutdown)
			return server.Run(ctx, sCfg, hooks...)
		},
	}
	cmd.Flags().String("addr", netsvr.DefaultAddr, "listen address")
	cmd.Flags().String("session.store", "memory", "session store: memory|redis")
	cmd.Flags().Duration("session.ttl", 0, "session lifetime")
	cmd.Flags().Bool("session.cookie_secure", false, "set the Secure flag on the session cookie")
	cmd.Flags().String("redis.addr", "", "redis address")
	cmd.Flags().String("redis.password", "", "redis password")
	cmd.Flags().Int("redis.db", 0, "redis db")
	cmd.Flags().String("compress.zstd_level", "", "zstd level: fastest|default|better|best")
	cmd.Flags().Bool("compress.disable", false, "disable response compression")
	return cmd
}
