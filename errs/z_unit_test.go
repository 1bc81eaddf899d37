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

package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapKeepsLevel(t *testing.T) {
	base := NewAuth("session expired")
	w := Wrap(base, "load session")
	if w.ErrLv != Auth {
		t.Fatalf("expected auth level, got %s", ErrLv(w.ErrLv))
	}
	if !errors.Is(w, base) {
		t.Fatalf("expected wrapped error to unwrap to base")
	}
}

func TestWrapForeignErrorIsFatal(t *testing.T) {
	w := Wrap(errors.New("dial tcp: refused"), "call backend")
	if w.ErrLv != Fatal {
		t.Fatalf("expected fatal level, got %s", ErrLv(w.ErrLv))
	}
	if !strings.Contains(w.Error(), "refused") {
		t.Fatalf("cause missing from message: %s", w.Error())
	}
}

func TestPublicHidesCause(t *testing.T) {
	e := WrapAs(Warn, errors.New("secret internals"), "invalid ip")
	e.Extra = "10.0.0.999"
	if got := e.Public(); got != "invalid ip: 10.0.0.999" {
		t.Fatalf("unexpected public message %q", got)
	}
}

func TestLevel(t *testing.T) {
	if Level(errors.New("x")) != None {
		t.Fatalf("plain error should have no level")
	}
	if Level(NewDenied("no")) != Denied {
		t.Fatalf("expected denied")
	}
}
