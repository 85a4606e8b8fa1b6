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

package llms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// RetryConfig configures retry behavior around model calls.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first (default: 3).
	MaxRetries int

	// BaseDelay is the delay between retries (default: 1s). With
	// exponential backoff this is the first delay.
	BaseDelay time.Duration

	// Exponential doubles the delay on every attempt; otherwise the delay
	// is fixed at BaseDelay.
	Exponential bool

	// MaxDelay caps the exponential delay (default: 30s).
	MaxDelay time.Duration

	// RetryableErrors are error substrings that mark a failure transient.
	RetryableErrors []string
}

// DefaultRetryConfig returns the defaults used for model calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"timeout",
			"rate limit",
			"429",
			"500",
			"502",
			"503",
			"504",
			"temporarily unavailable",
			"too many requests",
		},
	}
}

// Retryer reruns transient model-call failures with fixed or exponential
// delay.
type Retryer struct {
	config RetryConfig
}

// NewRetryer creates a retryer, filling unset config fields with defaults.
func NewRetryer(cfg RetryConfig) *Retryer {
	defaults := DefaultRetryConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaults.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaults.MaxDelay
	}
	if len(cfg.RetryableErrors) == 0 {
		cfg.RetryableErrors = defaults.RetryableErrors
	}
	return &Retryer{config: cfg}
}

// Do executes fn, retrying transient failures until the attempt budget is
// exhausted. Returns the first successful result, or a RetryError wrapping
// the last failure.
func Do[T any](ctx context.Context, r *Retryer, operation string, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		var err error
		result, err = fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !r.isRetryable(err) {
			return result, err
		}

		if attempt >= r.config.MaxRetries {
			return result, &RetryError{
				Operation: operation,
				Attempts:  attempt + 1,
				LastError: err,
			}
		}

		delay := r.delay(attempt)
		slog.Debug("Retrying model call",
			"operation", operation,
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
	}

	return result, lastErr
}

func (r *Retryer) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// A deadline on the surrounding context is final; a per-call timeout is
	// transient and worth another attempt.
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var retryErr *RetryError
	if errors.As(err, &retryErr) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range r.config.RetryableErrors {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func (r *Retryer) delay(attempt int) time.Duration {
	if !r.config.Exponential {
		return r.config.BaseDelay
	}
	delay := time.Duration(math.Pow(2, float64(attempt))) * r.config.BaseDelay
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	return delay
}

// RetryError reports an exhausted retry budget.
type RetryError struct {
	Operation string
	Attempts  int
	LastError error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.LastError)
}

func (e *RetryError) Unwrap() error {
	return e.LastError
}

// TimeoutError reports a model call that exceeded its per-call timeout.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}
