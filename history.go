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

package backoffice

import (
	"bytes"
	"context"

	"github.com/zintix-labs/backoffice/access"
	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/export"
	"github.com/zintix-labs/backoffice/view"
)

// GroupParams pages a grouped screen: Page over groups, RowPages per client id.
type GroupParams struct {
	Page     int
	RowPages map[string]int
}

// HistoryScreen is the play-history search result grouped by player.
type HistoryScreen struct {
	Module  string           `json:"module"`
	Actions access.Actions   `json:"actions"`
	Query   dto.HistoryQuery `json:"query"`
	view.GroupPage[dto.PlayRecord]
}

type TransactionScreen struct {
	Module  string               `json:"module"`
	Actions access.Actions       `json:"actions"`
	Query   dto.TransactionQuery `json:"query"`
	view.GroupPage[dto.TransactionRecord]
}

func (c *Console) historyGroups(ctx context.Context, q *dto.HistoryQuery) ([]view.Group[dto.PlayRecord], error) {
	vals, err := q.Values(c.now())
	if err != nil {
		return nil, err
	}
	q.End = vals.Get("end")
	rows, err := c.history.List(ctx, vals)
	if err != nil {
		return nil, err
	}
	return view.GroupHistory(rows), nil
}

func (c *Console) transactionGroups(ctx context.Context, q *dto.TransactionQuery) ([]view.Group[dto.TransactionRecord], error) {
	vals, err := q.Values(c.now())
	if err != nil {
		return nil, err
	}
	q.End = vals.Get("end")
	rows, err := c.txs.List(ctx, vals)
	if err != nil {
		return nil, err
	}
	return view.GroupTransactions(rows), nil
}

func (c *Console) History(ctx context.Context, q dto.HistoryQuery, p GroupParams) (HistoryScreen, error) {
	ctx, s, err := c.authorize(ctx, access.ModulePlayHistory, access.Read)
	if err != nil {
		return HistoryScreen{}, err
	}
	groups, err := c.historyGroups(ctx, &q)
	if err != nil {
		return HistoryScreen{}, err
	}
	return HistoryScreen{
		Module:    access.ModulePlayHistory,
		Actions:   access.ActionsFor(s.Role, access.ModulePlayHistory),
		Query:     q,
		GroupPage: view.PageGroups(groups, p.Page, p.RowPages),
	}, nil
}

// Transactions are gated by the play-history permission.
func (c *Console) Transactions(ctx context.Context, q dto.TransactionQuery, p GroupParams) (TransactionScreen, error) {
	ctx, s, err := c.authorize(ctx, access.ModuleTransaction, access.Read)
	if err != nil {
		return TransactionScreen{}, err
	}
	groups, err := c.transactionGroups(ctx, &q)
	if err != nil {
		return TransactionScreen{}, err
	}
	return TransactionScreen{
		Module:    access.ModuleTransaction,
		Actions:   access.ActionsFor(s.Role, access.ModuleTransaction),
		Query:     q,
		GroupPage: view.PageGroups(groups, p.Page, p.RowPages),
	}, nil
}

// Export is a rendered export file.
type Export struct {
	FileName    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportHistory runs the search and renders every matching row. onRow may be nil.
func (c *Console) ExportHistory(ctx context.Context, q dto.HistoryQuery, f export.Format, onRow func()) (*Export, error) {
	ctx, _, err := c.authorize(ctx, access.ModulePlayHistory, access.Read)
	if err != nil {
		return nil, err
	}
	groups, err := c.historyGroups(ctx, &q)
	if err != nil {
		return nil, err
	}
	rows := export.HistoryRows(groups, c.loc)
	var buf bytes.Buffer
	if err := export.Write(&buf, f, export.HistoryHeader, rows, onRow); err != nil {
		return nil, err
	}
	return &Export{
		FileName:    export.FileName(export.KindHistory, f, c.now()),
		ContentType: f.ContentType(),
		Body:        buf.Bytes(),
		Rows:        len(rows),
	}, nil
}

func (c *Console) ExportTransactions(ctx context.Context, q dto.TransactionQuery, f export.Format, onRow func()) (*Export, error) {
	ctx, _, err := c.authorize(ctx, access.ModuleTransaction, access.Read)
	if err != nil {
		return nil, err
	}
	groups, err := c.transactionGroups(ctx, &q)
	if err != nil {
		return nil, err
	}
	rows := export.TransactionRows(groups, c.loc)
	var buf bytes.Buffer
	if err := export.Write(&buf, f, export.TransactionHeader, rows, onRow); err != nil {
		return nil, err
	}
	return &Export{
		FileName:    export.FileName(export.KindTransaction, f, c.now()),
		ContentType: f.ContentType(),
		Body:        buf.Bytes(),
		Rows:        len(rows),
	}, nil
}
