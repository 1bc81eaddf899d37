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

package backend

import (
	"bytes"
	"encoding/json"

	"github.com/zintix-labs/backoffice/errs"
)

// ErrEnvelope marks a 2xx body whose shape matches none of the accepted envelopes.
var ErrEnvelope = errs.NewFatal("unexpected backend response shape")

// DecodeList normalizes the list envelopes the admin API uses:
//
//	[...]
//	{"data": [...]}
//	{"data": {"items": [...]}}
//	{"items": [...]}
//	{"data": null}        -> empty
func DecodeList[T any](raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] == '[' {
		return decodeArray[T](raw)
	}
	if raw[0] != '{' {
		return nil, errs.Wrap(ErrEnvelope, "list: not an object or array")
	}

	var env struct {
		Data  json.RawMessage `json:"data"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errs.Wrap(err, "decode list envelope")
	}
	switch {
	case env.Data != nil:
		return DecodeList[T](nestedItems(env.Data))
	case env.Items != nil:
		return decodeArray[T](env.Items)
	}
	return nil, errs.Wrap(ErrEnvelope, "list: no data or items")
}

// nestedItems unwraps {"items": [...]} when data is itself an object.
func nestedItems(data json.RawMessage) json.RawMessage {
	d := bytes.TrimSpace(data)
	if len(d) == 0 || d[0] != '{' {
		return d
	}
	var inner struct {
		Items json.RawMessage `json:"items"`
	}
	if json.Unmarshal(d, &inner) == nil && inner.Items != nil {
		return inner.Items
	}
	return d
}

func decodeArray[T any](raw []byte) ([]T, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return []T{}, nil
	}
	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errs.Wrap(err, "decode list items")
	}
	return out, nil
}

// DecodeOne accepts {"data": {...}} or a bare object.
func DecodeOne[T any](raw []byte) (*T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, errs.Wrap(ErrEnvelope, "object: not an object")
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errs.Wrap(err, "decode object envelope")
	}
	body := raw
	if d := bytes.TrimSpace(env.Data); len(d) > 0 && d[0] == '{' {
		body = d
	} else if bytes.Equal(d, []byte("null")) {
		return nil, errs.Wrap(ErrEnvelope, "object: data is null")
	}
	out := new(T)
	if err := json.Unmarshal(body, out); err != nil {
		return nil, errs.Wrap(err, "decode object")
	}
	return out, nil
}

// IDOf extracts the created record's id ("_id" or "id") from a mutation response, "" when absent.
func IDOf(raw []byte) string {
	type idOnly struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
	}
	if v, err := DecodeOne[idOnly](raw); err == nil {
		if v.ID != "" {
			return v.ID
		}
		return v.AltID
	}
	return ""
}
