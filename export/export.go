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

// Package export 把分組後的遊戲紀錄 / 交易紀錄攤平成表格並輸出成檔案。
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/view"
	"gopkg.in/yaml.v3"
)

var ErrNoData = errs.NewWarn("no data to export")

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return CSV, nil
	case CSV, JSON, YAML:
		return f, nil
	case "yml":
		return YAML, nil
	}
	return "", errs.NewWithExtra(errs.Warn, "unsupported export format", s)
}

func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	default:
		return "text/csv; charset=utf-8"
	}
}

type Kind string

const (
	KindHistory     Kind = "Play_History"
	KindTransaction Kind = "Player_Transaction"
)

// FileName is <kind>_<YYYY-MM-DD>.<ext>, dated in UTC.
func FileName(k Kind, f Format, now time.Time) string {
	return string(k) + "_" + now.UTC().Format(dto.DateLayout) + "." + string(f)
}

// DateTimeLayout renders as dd/mm/yyyy, HH:MM.
const DateTimeLayout = "02/01/2006, 15:04"

type HistoryRow struct {
	PlayerName string  `json:"Player Name" yaml:"Player Name"`
	Balance    float64 `json:"Balance" yaml:"Balance"`
	Game       string  `json:"Game" yaml:"Game"`
	Status     string  `json:"Status" yaml:"Status"`
	Amount     float64 `json:"Amount" yaml:"Amount"`
	DateTime   string  `json:"DateTime" yaml:"DateTime"`
}

var HistoryHeader = []string{"Player Name", "Balance", "Game", "Status", "Amount", "DateTime"}

func (r HistoryRow) Cells() []string {
	return []string{r.PlayerName, num(r.Balance), r.Game, r.Status, num(r.Amount), r.DateTime}
}

type TransactionRow struct {
	PlayerName string  `json:"Player Name" yaml:"Player Name"`
	Balance    float64 `json:"Balance" yaml:"Balance"`
	Type       string  `json:"Type" yaml:"Type"`
	Amount     float64 `json:"Amount" yaml:"Amount"`
	DateTime   string  `json:"DateTime" yaml:"DateTime"`
}

var TransactionHeader = []string{"Player Name", "Balance", "Type", "Amount", "DateTime"}

func (r TransactionRow) Cells() []string {
	return []string{r.PlayerName, num(r.Balance), r.Type, num(r.Amount), r.DateTime}
}

// HistoryRows flattens groups in display order. loc nil means UTC.
func HistoryRows(groups []view.Group[dto.PlayRecord], loc *time.Location) []HistoryRow {
	out := []HistoryRow{}
	for _, g := range groups {
		for _, r := range g.Records {
			out = append(out, HistoryRow{
				PlayerName: g.Client.Username,
				Balance:    g.Client.Balance,
				Game:       r.Game,
				Status:     r.Status,
				Amount:     r.Amount,
				DateTime:   stamp(r.CreatedAt, loc),
			})
		}
	}
	return out
}

func TransactionRows(groups []view.Group[dto.TransactionRecord], loc *time.Location) []TransactionRow {
	out := []TransactionRow{}
	for _, g := range groups {
		for _, r := range g.Records {
			out = append(out, TransactionRow{
				PlayerName: g.Client.Username,
				Balance:    g.Client.Balance,
				Type:       r.Type,
				Amount:     r.Amount,
				DateTime:   stamp(r.CreatedAt, loc),
			})
		}
	}
	return out
}

type Row interface {
	Cells() []string
}

// Write renders rows in format f. onRow, when non-nil, runs once per row written.
func Write[R Row](w io.Writer, f Format, header []string, rows []R, onRow func()) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	tick := func() {
		if onRow != nil {
			onRow()
		}
	}
	switch f {
	case CSV, "":
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return errs.Wrap(err, "write csv header")
		}
		for _, r := range rows {
			if err := cw.Write(r.Cells()); err != nil {
				return errs.Wrap(err, "write csv row")
			}
			tick()
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return errs.Wrap(err, "flush csv")
		}
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return errs.Wrap(err, "encode json export")
		}
		for range rows {
			tick()
		}
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return errs.Wrap(err, "encode yaml export")
		}
		if err := enc.Close(); err != nil {
			return errs.Wrap(err, "close yaml export")
		}
		for range rows {
			tick()
		}
	default:
		return errs.NewWithExtra(errs.Warn, "unsupported export format", string(f))
	}
	return nil
}

func stamp(t dto.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateTimeLayout)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
