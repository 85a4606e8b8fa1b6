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
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestParallelMapPreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}

	results, err := ParallelMap(context.Background(), items, 2, func(ctx context.Context, n int) (string, error) {
		// Finish in reverse order to prove results are placed by index.
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("v%d", n), nil
	})
	if err != nil {
		t.Fatalf("ParallelMap() error = %v", err)
	}

	want := []string{"v5", "v1", "v4", "v2", "v3"}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("ParallelMap() = %v, want %v", results, want)
	}
}

func TestParallelMapBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64
	items := make([]int, 20)

	_, err := ParallelMap(context.Background(), items, 3, func(ctx context.Context, _ int) (int, error) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return 0, nil
	})
	if err != nil {
		t.Fatalf("ParallelMap() error = %v", err)
	}
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", peak)
	}
}

func TestParallelMapFirstError(t *testing.T) {
	boom := errors.New("boom")
	items := []int{0, 1, 2, 3}

	results, err := ParallelMap(context.Background(), items, 0, func(ctx context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n * 10, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ParallelMap() error = %v, want boom", err)
	}
	// Partial results for the successful items are still delivered.
	if results[1] != 10 || results[3] != 30 {
		t.Errorf("partial results = %v", results)
	}
}

func TestParallelMapEmptyInput(t *testing.T) {
	results, err := ParallelMap(context.Background(), nil, 4, func(ctx context.Context, n int) (int, error) {
		t.Fatal("fn called for empty input")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("ParallelMap() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want empty", results)
	}
}

func TestParallelMapCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParallelMap(ctx, []int{1, 2, 3}, 2, func(ctx context.Context, n int) (int, error) {
		return n, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ParallelMap() error = %v, want context.Canceled", err)
	}
}
