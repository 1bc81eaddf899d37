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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

const DefaultShutdownTimeout = 5 * time.Second

// App 啟動所有註冊的 Component，並在收到 OS 信號、ctx 結束或任一 Component 返回時協調優雅關閉。
type App struct {
	comps   []Component
	hooks   []func(context.Context) error
	timeout time.Duration
	log     *slog.Logger
}

// New 建立一個新的 App 實例。
func New() *App {
	return &App{timeout: DefaultShutdownTimeout, log: slog.New(slog.DiscardHandler)}
}

// NewWith 是 New 的語法糖，允許在建立時直接註冊多個 Component。
func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

// Register 將一個 Component 註冊到 App 中，該 Component 將在 Run 時被管理。
func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// OnShutdown registers fn to run after every component has shut down,
// in registration order. Used for closing shared clients (Redis, log files).
func (a *App) OnShutdown(fn func(context.Context) error) {
	a.hooks = append(a.hooks, fn)
}

func (a *App) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		a.timeout = d
	}
}

func (a *App) SetLogger(log *slog.Logger) {
	if log != nil {
		a.log = log
	}
}

// Run 等同 RunContext(context.Background())。
func (a *App) Run() error {
	return a.RunContext(context.Background())
}

// RunContext 阻塞直到收到 SIGINT/SIGTERM、ctx 結束，或任一 Component 的 Run 返回。
//   - 信號或 ctx 結束：優雅關閉並回傳 nil。
//   - Component 返回：優雅關閉並回傳該錯誤（正常返回則為 nil）。
func (a *App) RunContext(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case runErr = <-errCh:
		if runErr != nil {
			a.log.Error("component stopped", slog.Any("err", runErr))
		}
	}
	return errors.Join(runErr, a.gracefulShutdown())
}

// gracefulShutdown 在 timeout 內依序呼叫所有 Component.Shutdown，再執行 OnShutdown hooks。
func (a *App) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	var all []error
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Warn("shutdown component", slog.Any("err", err))
			all = append(all, err)
		}
	}
	for _, fn := range a.hooks {
		if err := fn(ctx); err != nil {
			a.log.Warn("shutdown hook", slog.Any("err", err))
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}
