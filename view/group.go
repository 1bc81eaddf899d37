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

package view

import (
	"github.com/zintix-labs/backoffice/dto"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary 是單一玩家一組紀錄的金額統計。
type Summary struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
	Mean  float64 `json:"mean"`
	Max   float64 `json:"max"`
	// 只有交易紀錄會填
	Deposits    float64 `json:"deposits,omitempty"`
	Withdrawals float64 `json:"withdrawals,omitempty"`
}

// Group is every record of one player, in backend order.
type Group[T any] struct {
	Client  dto.Client `json:"client"`
	Records []T        `json:"records"`
	Summary Summary    `json:"summary"`
}

// GroupByClient groups rows by the embedded client id. Groups appear in the order
// their client is first seen; the client summary is taken from the last row seen.
func GroupByClient[T any](rows []T, client func(T) dto.Client, amount func(T) float64) []Group[T] {
	idx := map[string]int{}
	groups := []Group[T]{}
	for _, r := range rows {
		c := client(r)
		i, ok := idx[c.ID]
		if !ok {
			i = len(groups)
			idx[c.ID] = i
			groups = append(groups, Group[T]{})
		}
		groups[i].Client = c
		groups[i].Records = append(groups[i].Records, r)
	}
	for i := range groups {
		groups[i].Summary = summarize(groups[i].Records, amount)
	}
	return groups
}

func summarize[T any](recs []T, amount func(T) float64) Summary {
	if len(recs) == 0 {
		return Summary{}
	}
	xs := make([]float64, len(recs))
	for i, r := range recs {
		xs[i] = amount(r)
	}
	return Summary{
		Count: len(xs),
		Total: floats.Sum(xs),
		Mean:  stat.Mean(xs, nil),
		Max:   floats.Max(xs),
	}
}

func GroupHistory(rows []dto.PlayRecord) []Group[dto.PlayRecord] {
	return GroupByClient(rows,
		func(r dto.PlayRecord) dto.Client { return r.Client },
		func(r dto.PlayRecord) float64 { return r.Amount },
	)
}

// GroupTransactions also splits each group's total into deposits and withdrawals.
func GroupTransactions(rows []dto.TransactionRecord) []Group[dto.TransactionRecord] {
	groups := GroupByClient(rows,
		func(r dto.TransactionRecord) dto.Client { return r.Client },
		func(r dto.TransactionRecord) float64 { return r.Amount },
	)
	for i := range groups {
		var dep, wd []float64
		for _, r := range groups[i].Records {
			switch r.Type {
			case dto.TxDeposit:
				dep = append(dep, r.Amount)
			case dto.TxWithdraw:
				wd = append(wd, r.Amount)
			}
		}
		groups[i].Summary.Deposits = floats.Sum(dep)
		groups[i].Summary.Withdrawals = floats.Sum(wd)
	}
	return groups
}

// GroupPage is a page of groups where each group's records are themselves paged.
type GroupPage[T any] struct {
	Page[GroupView[T]]
}

type GroupView[T any] struct {
	Client  dto.Client `json:"client"`
	Summary Summary    `json:"summary"`
	Rows    Page[T]    `json:"rows"`
}

// PageGroups pages the groups (GroupPageSize per page) and the rows inside each
// group (NestedPageSize per page). rowPages maps client id to its row page; missing
// ids start at page 1.
func PageGroups[T any](groups []Group[T], page int, rowPages map[string]int) GroupPage[T] {
	views := make([]GroupView[T], len(groups))
	for i, g := range groups {
		views[i] = GroupView[T]{
			Client:  g.Client,
			Summary: g.Summary,
			Rows:    Paginate(g.Records, rowPages[g.Client.ID], NestedPageSize),
		}
	}
	return GroupPage[T]{Page: Paginate(views, page, GroupPageSize)}
}
