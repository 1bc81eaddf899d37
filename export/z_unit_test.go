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

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/view"
	"gopkg.in/yaml.v3"
)

func sampleHistory() []view.Group[dto.PlayRecord] {
	at := dto.Time{Time: time.Date(2025, 3, 4, 5, 6, 0, 0, time.UTC)}
	c := dto.Client{ID: "a", Username: "amy", Balance: 1200.5}
	return view.GroupHistory([]dto.PlayRecord{
		{Client: c, Game: "Baccarat", Status: "win", Amount: 50, CreatedAt: at},
		{Client: c, Game: "Slots, Deluxe", Status: "lose", Amount: 10, CreatedAt: at},
	})
}

func TestFileName(t *testing.T) {
	now := time.Date(2025, 6, 7, 23, 0, 0, 0, time.FixedZone("X", -3*3600))
	if got := FileName(KindHistory, CSV, now); got != "Play_History_2025-06-08.csv" {
		t.Fatalf("got %q", got)
	}
	if got := FileName(KindTransaction, YAML, now); got != "Player_Transaction_2025-06-08.yaml" {
		t.Fatalf("got %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": CSV, "CSV": CSV, "json": JSON, "yml": YAML, " yaml ": YAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Fatalf("xlsx is not supported")
	}
}

func TestHistoryCSV(t *testing.T) {
	rows := HistoryRows(sampleHistory(), nil)
	var buf bytes.Buffer
	n := 0
	if err := Write(&buf, CSV, HistoryHeader, rows, func() { n++ }); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "Player Name,Balance,Game,Status,Amount,DateTime\n" +
		"amy,1200.5,Baccarat,win,50,\"04/03/2025, 05:06\"\n" +
		"amy,1200.5,\"Slots, Deluxe\",lose,10,\"04/03/2025, 05:06\"\n"
	if buf.String() != want {
		t.Fatalf("csv mismatch:\n%s\nwant:\n%s", buf.String(), want)
	}
	if n != 2 {
		t.Fatalf("onRow ran %d times", n)
	}
}

func TestHistoryLocation(t *testing.T) {
	bkk := time.FixedZone("ICT", 7*3600)
	rows := HistoryRows(sampleHistory(), bkk)
	if rows[0].DateTime != "04/03/2025, 12:06" {
		t.Fatalf("got %q", rows[0].DateTime)
	}
}

func TestTransactionJSONAndYAML(t *testing.T) {
	c := dto.Client{ID: "a", Username: "amy", Balance: 5}
	rows := TransactionRows(view.GroupTransactions([]dto.TransactionRecord{
		{Client: c, Type: dto.TxDeposit, Amount: 100},
	}), nil)

	var jb bytes.Buffer
	if err := Write(&jb, JSON, TransactionHeader, rows, nil); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(jb.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded[0]["Player Name"] != "amy" || decoded[0]["Type"] != "Deposit" || decoded[0]["DateTime"] != "" {
		t.Fatalf("unexpected %v", decoded)
	}

	var yb bytes.Buffer
	if err := Write(&yb, YAML, TransactionHeader, rows, nil); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var ydec []map[string]any
	if err := yaml.Unmarshal(yb.Bytes(), &ydec); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if ydec[0]["Amount"] != 100 || !strings.Contains(yb.String(), "Player Name: amy") {
		t.Fatalf("unexpected yaml:\n%s", yb.String())
	}
}

func TestEmptyIsNoData(t *testing.T) {
	err := Write(&bytes.Buffer{}, CSV, HistoryHeader, []HistoryRow{}, nil)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
