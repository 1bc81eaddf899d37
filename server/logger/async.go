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
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// warnWait 是 Warn 以上的紀錄在佇列滿時最多等待的時間；Info 以下直接丟棄。
const warnWait = 20 * time.Millisecond

// AsyncHandler 把寫出移到背景 goroutine，request 路徑只做 enqueue。
//
// slog.Logger 會忽略 Handle 回傳的 error，所以這裡永遠回 nil；丟棄的筆數由 Dropped 觀測，
// 關閉時若有丟棄會補一筆 warn。
type AsyncHandler struct {
	next slog.Handler
	q    *queue
}

type queue struct {
	items   chan pending
	stop    chan struct{}
	stopped sync.Once
	done    chan struct{}
	dropped atomic.Uint64
	// closed 之後不再收新紀錄；senders 歸零後才 close(stop)，drain 才看得到所有已 enqueue 的紀錄
	mu      sync.RWMutex
	closed  bool
	senders sync.WaitGroup
	// report 用於關閉時回報丟棄數量，是最外層（未加 attrs）的 handler
	report slog.Handler
}

type pending struct {
	ctx context.Context
	h   slog.Handler
	rec slog.Record
}

// NewAsyncHandler wraps next with a queue of size buf (default 1024).
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = slog.DiscardHandler
	}
	if buf <= 0 {
		buf = 1024
	}
	q := &queue{
		items:  make(chan pending, buf),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		report: next,
	}
	go q.run()
	return &AsyncHandler{next: next, q: q}
}

func (h *AsyncHandler) Ready() bool {
	return h != nil && h.q != nil
}

// Dropped returns the number of records dropped because the queue was full or closed.
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.dropped.Load()
}

func (q *queue) run() {
	defer close(q.done)
	for {
		select {
		case p := <-q.items:
			_ = p.h.Handle(p.ctx, p.rec)
		case <-q.stop:
			q.drain()
			return
		}
	}
}

func (q *queue) drain() {
	for {
		select {
		case p := <-q.items:
			_ = p.h.Handle(p.ctx, p.rec)
		default:
			if n := q.dropped.Load(); n > 0 {
				r := slog.NewRecord(time.Now(), slog.LevelWarn, "async log records dropped", 0)
				r.AddAttrs(slog.Uint64("dropped", n))
				_ = q.report.Handle(context.Background(), r)
			}
			return
		}
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Ready() {
		return nil
	}
	q := h.q
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		q.dropped.Add(1)
		return nil
	}
	q.senders.Add(1)
	q.mu.RUnlock()
	defer q.senders.Done()

	// request 結束後 ctx 會被取消，寫出時不應受影響
	p := pending{ctx: context.WithoutCancel(ctx), h: h.next, rec: r.Clone()}
	select {
	case q.items <- p:
		return nil
	default:
	}
	if r.Level < slog.LevelWarn {
		q.dropped.Add(1)
		return nil
	}
	t := time.NewTimer(warnWait)
	defer t.Stop()
	select {
	case q.items <- p:
	case <-t.C:
		q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}

// Shutdown stops accepting records and waits for the queue to drain, or for ctx.
// Safe to call more than once; it can be registered with app.OnShutdown directly.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if !h.Ready() {
		return nil
	}
	q := h.q
	q.stopped.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		go func() {
			q.senders.Wait()
			close(q.stop)
		}()
	})
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is Shutdown without a deadline.
func (h *AsyncHandler) Close() {
	_ = h.Shutdown(context.Background())
}
