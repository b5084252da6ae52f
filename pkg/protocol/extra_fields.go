// Copyright (C) 2025 SAGE-X Project
//
// This file is part of virgil-cards-go.
//
// virgil-cards-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// virgil-cards-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with virgil-cards-go.  If not, see <https://www.gnu.org/licenses/>.

package protocol

import (
	"bytes"

	"github.com/tidwall/gjson"
)

// ExtraFields is a string map that remembers insertion order.
// Signers serialize it in that order, so the same fields added in a
// different order produce a different snapshot.
type ExtraFields struct {
	keys   []string
	values map[string]string
}

// NewExtraFields creates ExtraFields from alternating key/value pairs.
// A trailing key without a value is ignored.
func NewExtraFields(pairs ...string) *ExtraFields {
	f := &ExtraFields{values: make(map[string]string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Set(pairs[i], pairs[i+1])
	}
	return f
}

// Set adds or replaces a field. Replacing keeps the original position.
func (f *ExtraFields) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key
func (f *ExtraFields) Get(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (f *ExtraFields) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of fields
func (f *ExtraFields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Map returns an unordered copy of the fields
func (f *ExtraFields) Map() map[string]string {
	out := make(map[string]string, f.Len())
	if f == nil {
		return out
	}
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the fields as a JSON object in insertion order
func (f *ExtraFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range f.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalSnapshot(key)
		if err != nil {
			return nil, err
		}
		v, err := marshalSnapshot(f.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Snapshot returns the canonical bytes signed for these fields
func (f *ExtraFields) Snapshot() ([]byte, error) {
	return f.MarshalJSON()
}

// ParseExtraFields decodes a signature snapshot in document order.
//
// Decoding is best effort: a snapshot that is not a JSON object yields empty
// fields rather than an error, because the snapshot bytes (not the decoded
// map) are what the signature covers.
func ParseExtraFields(snapshot []byte) *ExtraFields {
	fields := NewExtraFields()
	if len(snapshot) == 0 || !gjson.ValidBytes(snapshot) {
		return fields
	}

	result := gjson.ParseBytes(snapshot)
	if !result.IsObject() {
		return fields
	}

	result.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			fields.Set(key.String(), value.String())
		} else {
			fields.Set(key.String(), value.Raw)
		}
		return true
	})
	return fields
}
