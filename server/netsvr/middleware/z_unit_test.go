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

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var payload = strings.Repeat(`{"username":"amy","balance":1200.5}`, 50)

func serve(h http.Handler, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
	if accept != "" {
		req.Header.Set("Accept-Encoding", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, payload)
}

func TestCompressionGzip(t *testing.T) {
	h := Compression(DefaultCompressConfig)(http.HandlerFunc(jsonHandler))
	rec := serve(h, "gzip, deflate")
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, got %q", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	got, _ := io.ReadAll(zr)
	if string(got) != payload {
		t.Fatalf("round trip mismatch")
	}
}

func TestCompressionZstdAndDisable(t *testing.T) {
	h := Compression(DefaultCompressConfig)(http.HandlerFunc(jsonHandler))
	rec := serve(h, "zstd, gzip")
	if rec.Header().Get("Content-Encoding") != "zstd" {
		t.Fatalf("expected zstd, got %q", rec.Header().Get("Content-Encoding"))
	}
	dec, _ := zstd.NewReader(nil)
	defer dec.Close()
	got, err := dec.DecodeAll(rec.Body.Bytes(), nil)
	if err != nil || string(got) != payload {
		t.Fatalf("zstd round trip failed: %v", err)
	}

	cfg := DefaultCompressConfig
	cfg.DisableZstd = true
	rec = serve(Compression(cfg)(http.HandlerFunc(jsonHandler)), "zstd, gzip")
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("zstd disabled should fall back to gzip, got %q", rec.Header().Get("Content-Encoding"))
	}
}

func TestCompressionSkipsNoBody(t *testing.T) {
	h := Compression(DefaultCompressConfig)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := serve(h, "gzip")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 || rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 must not be compressed: code=%d len=%d enc=%q", rec.Code, rec.Body.Len(), rec.Header().Get("Content-Encoding"))
	}
	rec = serve(h, "")
	if rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("no Accept-Encoding means no compression")
	}
}

func TestAccessLogAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})))
	rec := serve(h, "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("request id should be echoed")
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log: %v (%s)", err, buf.String())
	}
	if line["msg"] != "http.access" || line["status"] != float64(http.StatusTeapot) || line["bytes"] != float64(5) {
		t.Fatalf("unexpected log line %v", line)
	}
	if line["level"] != "WARN" || line["rid"] == "" {
		t.Fatalf("unexpected level or rid: %v", line)
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	h := Recover(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := serve(h, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestParseZstdLevel(t *testing.T) {
	if ParseZstdLevel("best") != zstd.SpeedBestCompression || ParseZstdLevel("nope") != zstd.SpeedFastest {
		t.Fatalf("level mapping")
	}
}
