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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/backoffice"
	"github.com/zintix-labs/backoffice/backend"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/session"
	"golang.org/x/term"
)

// unrestrictedRole 用於只給 --token 的情況：本地不做權限過濾，完全交給後端判斷。
const unrestrictedRole = `{"role":"cli","isSuperAdmin":true}`

// 測試時可替換，避免碰到真正的 terminal
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type authFlags struct {
	token string
	role  string
	user  string
}

func (a *authFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.token, "token", "", "bearer token for the admin API (env BACKOFFICE_TOKEN)")
	cmd.Flags().StringVar(&a.role, "role", "", "role descriptor json used with --token")
	cmd.Flags().StringVar(&a.user, "user", "", "log in as this user; the password is prompted")
}

// signIn builds the session the console operations read from ctx.
// --user logs in through the backend; otherwise --token (or BACKOFFICE_TOKEN) is used as is.
func signIn(ctx context.Context, cmd *cobra.Command, con *backoffice.Console, a authFlags) (context.Context, error) {
	if a.user != "" {
		pw, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return ctx, err
		}
		s, err := con.Login(ctx, backend.Credentials{Username: a.user, Password: pw}, "")
		if err != nil {
			return ctx, err
		}
		return session.WithSession(ctx, s), nil
	}

	token := a.token
	if token == "" {
		token = os.Getenv(envPrefix + "_TOKEN")
	}
	if strings.TrimSpace(token) == "" {
		return ctx, errs.NewAuth("--token or --user is required")
	}
	role := json.RawMessage(unrestrictedRole)
	if a.role != "" {
		role = json.RawMessage(a.role)
	}
	s, err := con.Sessions().Login(ctx, token, role, nil)
	if err != nil {
		return ctx, err
	}
	if s, err = con.Sessions().Load(ctx, s.ID); err != nil {
		return ctx, err
	}
	if s.RoleErr != nil {
		return ctx, errs.WrapAs(errs.Warn, s.RoleErr, "--role")
	}
	return session.WithSession(ctx, s), nil
}

// promptPassword 在 terminal 上關閉回顯讀取；非 terminal（pipe）時讀一行。
func promptPassword(in io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", errs.Wrap(err, "read password")
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", errs.Wrap(err, "read password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
