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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/session"
	"github.com/zintix-labs/backoffice/view"
)

var playerHeader = []string{"ID", "Username", "Name", "Balance"}

func newPlayersCmd(load configFn) *cobra.Command {
	var a authFlags
	var search string
	cmd := &cobra.Command{
		Use:   "players",
		Short: "List players as a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := load(cmd)
			if err != nil {
				return err
			}
			log := buildLogger(c)
			defer log.Shutdown(cmd.Context())

			sessions := session.NewManager(session.NewMemoryStore(), session.WithLogger(log.Logger))
			con, err := buildConsole(c, sessions, log.Logger)
			if err != nil {
				return err
			}
			ctx, err := signIn(cmd.Context(), cmd, con, a)
			if err != nil {
				return err
			}
			ps, err := con.AllPlayers(ctx, search)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), playerTable(ps))
			return nil
		},
	}
	a.bind(cmd)
	cmd.Flags().StringVarP(&search, "search", "q", "", "case-insensitive match on username or name")
	return cmd
}

func playerTable(ps []dto.Player) string {
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []string{p.ID, p.Username, p.Name, view.Money(p.Balance)})
	}
	return view.Table(fmt.Sprintf("Players (%d)", len(ps)), playerHeader, rows)
}
