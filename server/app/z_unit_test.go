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

package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeComp struct {
	stop     chan struct{}
	runErr   error
	shutdown int
}

func (f *fakeComp) Run() error {
	<-f.stop
	return f.runErr
}

func (f *fakeComp) Shutdown(context.Context) error {
	f.shutdown++
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}
	return nil
}

func TestRunContextStopsOnCancel(t *testing.T) {
	c := &fakeComp{stop: make(chan struct{})}
	a := NewWith(c)
	var hooked bool
	a.OnShutdown(func(context.Context) error { hooked = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.RunContext(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if c.shutdown != 1 || !hooked {
		t.Fatalf("shutdown=%d hooked=%v", c.shutdown, hooked)
	}
}

func TestRunContextReturnsComponentError(t *testing.T) {
	boom := errors.New("boom")
	c := &fakeComp{stop: make(chan struct{}), runErr: boom}
	close(c.stop)
	a := NewWith(c)
	a.SetShutdownTimeout(time.Second)
	hookErr := errors.New("hook")
	a.OnShutdown(func(context.Context) error { return hookErr })

	err := a.RunContext(context.Background())
	if !errors.Is(err, boom) || !errors.Is(err, hookErr) {
		t.Fatalf("err=%v", err)
	}
}
