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

// Package httperr 把 console 內部錯誤映射成 HTTP 回應。
//
// 放在 server/* 而不是 errs，讓核心錯誤包不依賴 net/http。
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/backoffice/backend"
	"github.com/zintix-labs/backoffice/errs"
)

const LoginPath = "/login"

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則：
//   - ctx timeout/cancel     → 504/408
//   - backend 4xx            → 原樣（後端的判斷就是答案）
//   - backend 5xx / 連不上    → 502
//   - errs.Auth              → 401
//   - errs.Denied            → 403
//   - errs.Confirm           → 428
//   - errs.Warn              → 400
//   - 其他                    → 500
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	var se *backend.StatusError
	if errors.As(err, &se) {
		if se.Status >= 400 && se.Status < 500 {
			return se.Status
		}
		return http.StatusBadGateway
	}
	var te *backend.TransportError
	if errors.As(err, &te) {
		return http.StatusBadGateway
	}

	switch errs.Level(err) {
	case errs.Auth:
		return http.StatusUnauthorized
	case errs.Denied:
		return http.StatusForbidden
	case errs.Confirm:
		return http.StatusPreconditionRequired
	case errs.Warn:
		return http.StatusBadRequest
	}
	if errors.Is(err, backend.ErrEnvelope) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Body is the JSON error answer.
type Body struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
	// Confirm is set on 428 so the UI can re-send with confirm=true.
	Confirm bool `json:"confirm,omitempty"`
}

// Message 回傳可以顯示給使用者的訊息；5xx 不外洩內部細節。
func Message(err error, status int) string {
	var se *backend.StatusError
	if errors.As(err, &se) && se.Message != "" && status < 500 {
		return se.Message
	}
	switch status {
	case http.StatusBadGateway:
		return "backend unavailable"
	case http.StatusGatewayTimeout:
		return "backend timed out"
	case http.StatusRequestTimeout:
		return "request canceled"
	}
	if status >= 500 {
		return "internal error"
	}
	if e, ok := errs.AsErr(err); ok {
		return e.Public()
	}
	return http.StatusText(status)
}

// Errs writes err as a JSON answer and returns the status used.
func Errs(w http.ResponseWriter, err error) int {
	if err == nil {
		return http.StatusOK
	}
	status := StatusCode(err)
	b := Body{Error: Message(err, status)}
	switch status {
	case http.StatusUnauthorized:
		b.Redirect = LoginPath
	case http.StatusPreconditionRequired:
		b.Confirm = true
	}
	JSON(w, status, b)
	return status
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Log 依 status 決定 log 等級；一般的 4xx 不記錄。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status >= 500:
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	case status == http.StatusRequestTimeout || status == http.StatusUnauthorized || status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
