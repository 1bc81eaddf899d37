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

package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zintix-labs/backoffice/errs"
)

// RedisStore keeps sessions in Redis as JSON values under "<prefix>:sess:<id>".
// Every operation is a single-key command, so no scripting is needed.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "bo"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":sess:" + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Wrap(err, "redis get session")
	}
	rec := new(Record)
	if err := json.Unmarshal(raw, rec); err != nil {
		// 壞掉的資料直接當作沒有 session（fail closed）
		_ = s.rdb.Del(ctx, s.key(id)).Err()
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *RedisStore) Put(ctx context.Context, id string, rec *Record, ttl time.Duration) error {
	if rec == nil {
		return errs.NewFatal("nil session record")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return errs.Wrap(err, "encode session")
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.key(id), raw, ttl).Err(); err != nil {
		return errs.Wrap(err, "redis set session")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return errs.Wrap(err, "redis del session")
	}
	return nil
}
