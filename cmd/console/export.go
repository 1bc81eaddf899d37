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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"github.com/zintix-labs/backoffice"
	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/export"
	"github.com/zintix-labs/backoffice/session"
)

type exportFlags struct {
	authFlags
	format string
	out    string
	quiet  bool
	q      dto.HistoryQuery
	txType string
}

func newExportCmd(load configFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export play history or transactions to csv, json or yaml",
	}
	cmd.AddCommand(exportSub(load, "history", "Export play history grouped by player",
		func(ctx context.Context, con *backoffice.Console, f *exportFlags, ft export.Format, onRow func()) (*backoffice.Export, error) {
			return con.ExportHistory(ctx, f.q, ft, onRow)
		}))
	cmd.AddCommand(exportSub(load, "transactions", "Export deposits and withdrawals grouped by player",
		func(ctx context.Context, con *backoffice.Console, f *exportFlags, ft export.Format, onRow func()) (*backoffice.Export, error) {
			return con.ExportTransactions(ctx, dto.TransactionQuery{
				Name:  f.q.Name,
				Type:  f.txType,
				Start: f.q.Start,
				End:   f.q.End,
			}, ft, onRow)
		}))
	return cmd
}

type exportFn func(ctx context.Context, con *backoffice.Console, f *exportFlags, ft export.Format, onRow func()) (*backoffice.Export, error)

func exportSub(load configFn, use, short string, run exportFn) *cobra.Command {
	f := new(exportFlags)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := load(cmd)
			if err != nil {
				return err
			}
			ft, err := export.ParseFormat(f.format)
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
			ctx, err := signIn(cmd.Context(), cmd, con, f.authFlags)
			if err != nil {
				return err
			}

			// 總筆數要等後端回應才知道，所以 bar 只計數
			bar := pb.New(0)
			bar.SetWriter(cmd.ErrOrStderr())
			if !f.quiet {
				bar.Start()
			}
			out, err := run(ctx, con, f, ft, func() { bar.Increment() })
			if !f.quiet {
				bar.Finish()
			}
			if err != nil {
				return err
			}
			return writeExport(cmd, f.out, out)
		},
	}
	f.bind(cmd)
	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "csv", "csv|json|yaml")
	fl.StringVarP(&f.out, "out", "o", "", "output file (default: generated file name, '-' for stdout)")
	fl.BoolVar(&f.quiet, "quiet", false, "hide the progress bar")
	fl.StringVar(&f.q.Name, "name", "", "player name")
	fl.StringVar(&f.q.Start, "start", "", "start date YYYY-MM-DD")
	fl.StringVar(&f.q.End, "end", "", "end date YYYY-MM-DD (default: today, UTC)")
	if use == "history" {
		fl.StringVar(&f.q.Game, "game", "", "game name")
		fl.StringVar(&f.q.Status, "status", "", "round status")
	} else {
		fl.StringVar(&f.txType, "type", "", dto.TxDeposit+"|"+dto.TxWithdraw)
	}
	return cmd
}

func writeExport(cmd *cobra.Command, path string, out *backoffice.Export) error {
	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		if path == "" {
			path = out.FileName
		}
		fh, err := os.Create(path)
		if err != nil {
			return errs.Wrap(err, "create "+path)
		}
		defer fh.Close()
		w = fh
	}
	if _, err := w.Write(out.Body); err != nil {
		return errs.Wrap(err, "write export")
	}
	if path != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d rows written to %s\n", out.Rows, path)
	}
	return nil
}
