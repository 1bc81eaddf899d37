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

// console 是 backoffice 的命令列入口：serve 啟動 HTTP console，
// players / export 直接以 CLI 操作同一套畫面邏輯。
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRoot().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:           "console",
		Short:         "Backoffice console for the game platform admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	root.PersistentFlags().String("backend.base_url", "", "admin API base url")
	root.PersistentFlags().Duration("backend.timeout", 0, "per-request backend timeout")
	root.PersistentFlags().String("log.mode", "dev", "log mode: dev|prod|silence")
	root.PersistentFlags().String("log.file", "", "rotating log file (empty: stderr/stdout)")
	root.PersistentFlags().String("nav.file", "", "navigation catalog yaml (empty: built-in)")
	root.PersistentFlags().String("export.timezone", "UTC", "timezone for exported timestamps")

	cfg := func(cmd *cobra.Command) (config, error) {
		v, err := newViper(cfgFile, cmd.Flags())
		if err != nil {
			return config{}, err
		}
		return loadConfig(v)
	}
	root.AddCommand(newServeCmd(cfg))
	root.AddCommand(newPlayersCmd(cfg))
	root.AddCommand(newExportCmd(cfg))
	return root
}

type configFn func(cmd *cobra.Command) (config, error)
