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
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zintix-labs/backoffice"
	"github.com/zintix-labs/backoffice/catalog"
	"github.com/zintix-labs/backoffice/catalog/defaults"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/server/logger"
	"github.com/zintix-labs/backoffice/session"
)

const (
	redisPrefix  = "bo"
	pingTimeout  = 3 * time.Second
	logAsyncSize = 4096
)

// closer 在 app 停止時釋放資源
type closer = func(context.Context) error

func buildLogger(c config) *logger.Logger {
	return logger.New(logger.Options{
		Mode:  logger.ParseMode(c.LogMode),
		File:  c.LogFile,
		Async: logAsyncSize,
	})
}

func buildCatalog(c config) (*catalog.Catalog, error) {
	if c.NavFile == "" {
		return catalog.Load(defaults.FS, defaults.Name)
	}
	dir, name := filepath.Split(c.NavFile)
	if dir == "" {
		dir = "."
	}
	return catalog.Load(os.DirFS(dir), name)
}

// buildSessions 依 session.store 選擇 memory 或 redis。redis 會先 ping 一次。
func buildSessions(ctx context.Context, c config, log *slog.Logger) (*session.Manager, closer, error) {
	opts := []session.Option{session.WithTTL(c.SessionTTL), session.WithLogger(log)}
	if c.SessionStore != "redis" {
		return session.NewManager(session.NewMemoryStore(), opts...), nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, errs.Wrap(err, "redis ping "+c.RedisAddr)
	}
	log.Info("session store: redis", slog.String("addr", c.RedisAddr), slog.Int("db", c.RedisDB))
	return session.NewManager(session.NewRedisStore(rdb, redisPrefix), opts...),
		func(context.Context) error { return rdb.Close() }, nil
}

func buildConsole(c config, sessions *session.Manager, log *slog.Logger) (*backoffice.Console, error) {
	cat, err := buildCatalog(c)
	if err != nil {
		return nil, err
	}
	return backoffice.New(backoffice.Deps{
		BackendURL:     c.BackendURL,
		BackendTimeout: c.BackendTimeout,
		Sessions:       sessions,
		Catalog:        cat,
		Log:            log,
		Location:       c.location(),
	})
}
