// Copyright 2026 The Goalith Authors
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

package utils

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "single char", text: "a", want: 1},
		{name: "exactly four chars", text: "abcd", want: 1},
		{name: "five chars", text: "abcde", want: 2},
		{name: "longer text", text: strings.Repeat("word ", 20), want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCountFunc(t *testing.T) {
	count := CountFunc("some-unknown-model")
	if count("") != 0 {
		t.Error("count(\"\") != 0")
	}
	n := count("hello world, this is a test sentence")
	if n == 0 {
		t.Error("count() = 0 for non-empty text")
	}
	if again := count("hello world, this is a test sentence"); again != n {
		t.Errorf("count() = %d on repeat, want %d", again, n)
	}
}

func TestTokenCounterFallback(t *testing.T) {
	counter, err := NewTokenCounter("some-unknown-model")
	if err != nil {
		t.Fatalf("NewTokenCounter() error = %v", err)
	}
	if counter.Count("hello world") == 0 {
		t.Error("Count() = 0 for non-empty text")
	}
}
