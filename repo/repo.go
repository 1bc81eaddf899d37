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

// Package repo 為每個後端資源提供同一套 CRUD 介面。
//
// Resource 只負責「打一次 API」；Refetching 在 mutation 成功之後重新讀取整個列表，
// 讓畫面永遠顯示後端的最新狀態。
package repo

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/zintix-labs/backoffice/backend"
	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/errs"
)

// ErrUnsupported is returned for an operation the resource does not expose.
var ErrUnsupported = errs.NewWarn("operation not supported for this resource")

// Result is what a mutation hands back. Items is filled by Refetching;
// Stale reports that the mutation succeeded but the refetch did not.
type Result[T any] struct {
	ID    string `json:"id,omitempty"`
	Items []T    `json:"items"`
	Stale bool   `json:"stale,omitempty"`
}

type Repository[T any] interface {
	List(ctx context.Context, q url.Values) ([]T, error)
	Detail(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, payload any) (Result[T], error)
	Update(ctx context.Context, payload any) (Result[T], error)
	Delete(ctx context.Context, id string) (Result[T], error)
}

// Doer is the part of backend.Client a Resource needs.
type Doer interface {
	Do(ctx context.Context, req backend.Request) ([]byte, error)
}

// Op is a bit set of the operations a resource exposes.
type Op uint8

const (
	OpList Op = 1 << iota
	OpDetail
	OpCreate
	OpUpdate
	OpDelete

	ReadOnly = OpList | OpDetail
	CRUD     = OpList | OpDetail | OpCreate | OpUpdate | OpDelete
)

// Resource is a Repository backed by one admin API collection path.
type Resource[T any] struct {
	do           Doer
	path         string
	detailPath   string
	updateMethod string
	ops          Op
}

func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) List(ctx context.Context, q url.Values) ([]T, error) {
	if r.ops&OpList == 0 {
		return nil, ErrUnsupported
	}
	raw, err := r.do.Do(ctx, backend.Request{Method: http.MethodGet, Path: r.path, Query: q})
	if err != nil {
		return nil, err
	}
	return backend.DecodeList[T](raw)
}

func (r *Resource[T]) Detail(ctx context.Context, id string) (*T, error) {
	if r.ops&OpDetail == 0 || r.detailPath == "" {
		return nil, ErrUnsupported
	}
	if id = strings.TrimSpace(id); id == "" {
		return nil, errs.NewWarn("id is required")
	}
	raw, err := r.do.Do(ctx, backend.Request{Method: http.MethodGet, Path: r.detailPath, Query: url.Values{"id": {id}}})
	if err != nil {
		return nil, err
	}
	return backend.DecodeOne[T](raw)
}

func (r *Resource[T]) Create(ctx context.Context, payload any) (Result[T], error) {
	if r.ops&OpCreate == 0 {
		return Result[T]{}, ErrUnsupported
	}
	raw, err := r.do.Do(ctx, backend.Request{Method: http.MethodPost, Path: r.path, Body: payload})
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{ID: backend.IDOf(raw)}, nil
}

func (r *Resource[T]) Update(ctx context.Context, payload any) (Result[T], error) {
	if r.ops&OpUpdate == 0 {
		return Result[T]{}, ErrUnsupported
	}
	if _, err := r.do.Do(ctx, backend.Request{Method: r.updateMethod, Path: r.path, Body: payload}); err != nil {
		return Result[T]{}, err
	}
	return Result[T]{}, nil
}

// Delete addresses the record by id in a JSON body, as the admin API expects.
func (r *Resource[T]) Delete(ctx context.Context, id string) (Result[T], error) {
	if r.ops&OpDelete == 0 {
		return Result[T]{}, ErrUnsupported
	}
	if id = strings.TrimSpace(id); id == "" {
		return Result[T]{}, errs.NewWarn("id is required")
	}
	if _, err := r.do.Do(ctx, backend.Request{Method: http.MethodDelete, Path: r.path, Body: dto.IDRequest{ID: id}}); err != nil {
		return Result[T]{}, err
	}
	return Result[T]{ID: id}, nil
}

// -----------------------------------------------------------------------------
//  Refetching
// -----------------------------------------------------------------------------

type refetching[T any] struct {
	Repository[T]
	log *slog.Logger
}

// Refetching lists the whole collection again after every successful mutation.
// A failed mutation returns its error and never refetches.
func Refetching[T any](inner Repository[T], log *slog.Logger) Repository[T] {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &refetching[T]{Repository: inner, log: log}
}

func (r *refetching[T]) Create(ctx context.Context, payload any) (Result[T], error) {
	res, err := r.Repository.Create(ctx, payload)
	if err != nil {
		return res, err
	}
	return r.refetch(ctx, res, "create")
}

func (r *refetching[T]) Update(ctx context.Context, payload any) (Result[T], error) {
	res, err := r.Repository.Update(ctx, payload)
	if err != nil {
		return res, err
	}
	return r.refetch(ctx, res, "update")
}

func (r *refetching[T]) Delete(ctx context.Context, id string) (Result[T], error) {
	res, err := r.Repository.Delete(ctx, id)
	if err != nil {
		return res, err
	}
	return r.refetch(ctx, res, "delete")
}

// refetch 失敗只標記 Stale；但 401 代表 session 已被清掉，必須往上回報。
func (r *refetching[T]) refetch(ctx context.Context, res Result[T], op string) (Result[T], error) {
	items, err := r.Repository.List(ctx, nil)
	if err != nil {
		if errs.Level(err) == errs.Auth {
			return res, err
		}
		r.log.Warn("refetch after mutation failed", slog.String("op", op), slog.Any("err", err))
		res.Stale = true
		return res, nil
	}
	res.Items = items
	return res, nil
}
