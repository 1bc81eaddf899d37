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
	"mime"
	"net/http"
	"strconv"

	"github.com/zintix-labs/backoffice"
	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/export"
)

func historyQuery(r *http.Request) dto.HistoryQuery {
	q := r.URL.Query()
	return dto.HistoryQuery{
		Name:   q.Get("name"),
		Game:   q.Get("game"),
		Status: q.Get("status"),
		Start:  q.Get("start"),
		End:    q.Get("end"),
	}
}

func transactionQuery(r *http.Request) dto.TransactionQuery {
	q := r.URL.Query()
	return dto.TransactionQuery{
		Name:  q.Get("name"),
		Type:  q.Get("type"),
		Start: q.Get("start"),
		End:   q.Get("end"),
	}
}

func (h *handler) History(w http.ResponseWriter, r *http.Request) {
	sc, err := h.con.History(r.Context(), historyQuery(r), groupParams(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, sc)
}

func (h *handler) Transactions(w http.ResponseWriter, r *http.Request) {
	sc, err := h.con.Transactions(r.Context(), transactionQuery(r), groupParams(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, sc)
}

func (h *handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.con.ExportHistory(r.Context(), historyQuery(r), f, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.attach(w, out)
}

func (h *handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.con.ExportTransactions(r.Context(), transactionQuery(r), f, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.attach(w, out)
}

// attach 整份檔案已經在記憶體裡，寫出前就能確定不會半途失敗
func (h *handler) attach(w http.ResponseWriter, out *backoffice.Export) {
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.FileName}))
	w.Header().Set("X-Export-Rows", strconv.Itoa(out.Rows))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Body); err != nil {
		h.log.Warn("export write failed", slog.String("file", out.FileName), slog.Any("err", err))
	}
}
