/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package testutil has some helpers for tests.
//
// This package must not import core.
package testutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		slog.Warn("testutil.JS", "error", err, "x", fmt.Sprintf("%#v", x))
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Dwimjs, when given a string or bytes, tries to parse that data as
// JSON.  When given anything else, or a string that isn't JSON, just
// returns what's given.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	switch vv := x.(type) {
	case []byte:
		return Dwimjs(string(vv))
	case string:
		var v interface{}
		if err := json.Unmarshal([]byte(vv), &v); err != nil {
			return vv
		}
		return v
	default:
		return x
	}
}

// Canonical round-trips the thing through JSON, so numbers become
// float64s and structs become maps.
func Canonical(x interface{}) interface{} {
	return Dwimjs(JS(x))
}

// AsInt tries to get an int from any of the numeric types that
// interpreters like to return.
func AsInt(x interface{}) (int, bool) {
	switch vv := x.(type) {
	case int:
		return vv, true
	case int64:
		return int(vv), true
	case float64:
		if vv == float64(int(vv)) {
			return int(vv), true
		}
	}
	return 0, false
}

// SameJSON fails the test if the JSON representations of got and
// want differ.
func SameJSON(t testing.TB, got, want interface{}) {
	t.Helper()
	if diff := cmp.Diff(Canonical(want), Canonical(got)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
