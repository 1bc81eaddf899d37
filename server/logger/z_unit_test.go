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

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]LogMode{"": ModeDev, "PROD": ModeProd, "json": ModeProd, "off": ModeSilence, "weird": ModeDev} {
		if got := ParseMode(in); got != want {
			t.Fatalf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(ModeProd, &buf)
	log.Info("login", slog.String("user", "amy"), slog.String("Token", "eyJ.secret"), slog.String("password", "pw"))
	out := buf.String()
	if strings.Contains(out, "eyJ.secret") || strings.Contains(out, `"pw"`) {
		t.Fatalf("secret leaked: %s", out)
	}
	if !strings.Contains(out, `"user":"amy"`) {
		t.Fatalf("ordinary attrs should survive: %s", out)
	}
}

func TestAsyncDrainsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewTextHandler(&buf, nil), 16)
	log := slog.New(ah)
	for i := 0; i < 5; i++ {
		log.Info("line", slog.Int("i", i))
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ah.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if n := strings.Count(buf.String(), "msg=line"); n != 5 {
		t.Fatalf("expected 5 lines after drain, got %d", n)
	}
	log.Info("after close")
	if ah.Dropped() != 1 {
		t.Fatalf("records after close should be dropped, got %d", ah.Dropped())
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	l := New(Options{Mode: ModeProd, File: path, Async: 8})
	l.Info("hello", slog.String("k", "v"))
	if err := l.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"hello"`) {
		t.Fatalf("log file content: %s", raw)
	}
}

func TestSilence(t *testing.T) {
	l := New(Options{Mode: ModeSilence})
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("silence mode should disable every level")
	}
}

// blockingHandler 卡住背景 worker，讓佇列可以被塞滿
type blockingHandler struct {
	slog.Handler
	release chan struct{}
}

func (b blockingHandler) Handle(ctx context.Context, r slog.Record) error {
	<-b.release
	return b.Handler.Handle(ctx, r)
}

func TestAsyncDropsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	bh := blockingHandler{Handler: slog.NewTextHandler(&buf, nil), release: make(chan struct{})}
	ah := NewAsyncHandler(bh, 1)
	log := slog.New(ah)

	for i := 0; i < 10; i++ {
		log.Info("flood")
	}
	if ah.Dropped() == 0 {
		t.Fatalf("a full queue should drop info records")
	}
	close(bh.release)
	ah.Close()
	if !strings.Contains(buf.String(), "async log records dropped") {
		t.Fatalf("drop report missing: %s", buf.String())
	}
}

// 與 Shutdown 同時寫入的紀錄，不是寫出就是計入 Dropped，不能憑空消失。
func TestAsyncRacingShutdownAccountsEveryRecord(t *testing.T) {
	const writers, each = 8, 200
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewTextHandler(&buf, nil), 4)
	log := slog.New(ah)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < each; j++ {
				log.Info("hit")
			}
		}()
	}
	close(start)
	ah.Close()
	wg.Wait()

	written := strings.Count(buf.String(), "msg=hit")
	if got := uint64(written) + ah.Dropped(); got != writers*each {
		t.Fatalf("written %d + dropped %d != %d", written, ah.Dropped(), writers*each)
	}
}
