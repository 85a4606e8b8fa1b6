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
	"sync"
)

// ParallelMap applies fn to every item concurrently and returns the results
// in input order regardless of completion order.
//
// When len(items) exceeds maxConcurrency a semaphore caps the number of
// in-flight calls; otherwise every item is dispatched immediately. A
// maxConcurrency of zero or less means unbounded.
//
// The first error observed is returned along with the partial results; a
// cancelled context stops new dispatches but in-flight calls run to
// completion.
func ParallelMap[T, R any](ctx context.Context, items []T, maxConcurrency int, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	var sem chan struct{}
	if maxConcurrency > 0 && len(items) > maxConcurrency {
		sem = make(chan struct{}, maxConcurrency)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}

		if sem != nil {
			sem <- struct{}{}
		}

		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			if sem != nil {
				defer func() { <-sem }()
			}

			result, err := fn(ctx, item)
			mu.Lock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			results[i] = result
		}(i, item)
	}

	wg.Wait()
	return results, firstErr
}
