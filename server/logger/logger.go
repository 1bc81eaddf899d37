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

// Package logger 建立 console 使用的 *slog.Logger。
//
// 輸出模式（LogMode）決定格式與等級；File 有值時改寫入 lumberjack 輪替檔。
// 任何名為 token / password / authorization / cookie 的屬性一律遮蔽。
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// enum LogMode
type LogMode uint8

const (
	ModeDev LogMode = iota
	ModeProd
	ModeSilence
)

func (m LogMode) String() string {
	switch m {
	case ModeProd:
		return "prod"
	case ModeSilence:
		return "silence"
	default:
		return "dev"
	}
}

// ParseMode maps "dev", "prod", "silence" (case-insensitive). Unknown names are dev.
func ParseMode(s string) LogMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production", "json":
		return ModeProd
	case "silence", "silent", "off", "none":
		return ModeSilence
	default:
		return ModeDev
	}
}

// Options 組裝 logger 的參數。
type Options struct {
	Mode LogMode
	// File 非空時輸出到輪替檔（lumberjack），否則 dev 寫 stderr、prod 寫 stdout。
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Async > 0 時以 AsyncHandler 包裝，值為 buffer 大小。
	Async int
}

// Logger 是組裝好的 logger 以及需要在關閉時釋放的資源。
type Logger struct {
	*slog.Logger
	async *AsyncHandler
	file  *lumberjack.Logger
}

// New builds a logger from o. Call Close (or register Shutdown) before exit.
func New(o Options) *Logger {
	var w io.Writer
	var file *lumberjack.Logger
	switch {
	case o.Mode == ModeSilence:
		w = io.Discard
	case o.File != "":
		file = &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    orDefault(o.MaxSizeMB, 100),
			MaxBackups: orDefault(o.MaxBackups, 7),
			MaxAge:     orDefault(o.MaxAgeDays, 30),
			Compress:   true,
		}
		w = file
	case o.Mode == ModeProd:
		w = os.Stdout
	default:
		w = os.Stderr
	}

	h := buildHandler(o.Mode, w)
	l := &Logger{file: file}
	if o.Async > 0 {
		l.async = NewAsyncHandler(h, o.Async)
		h = l.async
	}
	l.Logger = slog.New(h)
	return l
}

// Dropped reports records dropped by the async buffer.
func (l *Logger) Dropped() uint64 { return l.async.Dropped() }

// Shutdown drains the async buffer and closes the log file.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l.async != nil {
		if err := l.async.Shutdown(ctx); err != nil {
			return err
		}
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// NewDefaultLogger returns a synchronous *slog.Logger for mode on stderr/stdout.
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return New(Options{Mode: mode}).Logger
}

// NewWriterLogger builds a logger writing to w; used by tests and the CLI.
func NewWriterLogger(mode LogMode, w io.Writer) *slog.Logger {
	return slog.New(buildHandler(mode, w))
}

func buildHandler(mode LogMode, w io.Writer) slog.Handler {
	switch mode {
	case ModeProd:
		// JSON，給 Loki / Promtail
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo, ReplaceAttr: redact})
	case ModeSilence:
		return slog.DiscardHandler
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug, ReplaceAttr: redact})
	}
}

var secretKeys = map[string]struct{}{
	"token":         {},
	"password":      {},
	"authorization": {},
	"cookie":        {},
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := secretKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
