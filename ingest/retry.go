// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"context"
	"log/slog"
	"time"
)

// FaultClass categorizes a failed attempt for backoff selection.
type FaultClass int

const (
	// FaultGeneric covers ordinary retryable failures.
	FaultGeneric FaultClass = iota
	// FaultTransport covers transport and TLS level failures, which back off
	// more steeply to give a recovering connection room.
	FaultTransport
)

// Classifier inspects an attempt error and reports its fault class.
type Classifier func(error) FaultClass

// Policy is a reusable retry strategy. One policy definition serves every
// retrying call site (embedding, upsert, query), parameterized per site.
//
// Delay grows exponentially per attempt: x2 for generic faults, x3 when the
// classifier reports a transport fault, capped at MaxDelay when set. A fixed
// backoff is a policy with MaxDelay == BaseDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Classify    Classifier
}

// Do runs operation until it succeeds, attempts are exhausted, or the context
// is canceled. Returns the error from the last attempt on exhaustion.
func (p Policy) Do(ctx context.Context, operation func() error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt, "maxAttempts", p.MaxAttempts, "error", lastErr)

		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(p.Delay(attempt, lastErr))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// Delay computes the sleep before the attempt following the given one.
// Exposed so callers can reason about worst-case pipeline latency.
func (p Policy) Delay(attempt int, err error) time.Duration {
	multiplier := time.Duration(2)
	if p.Classify != nil && p.Classify(err) == FaultTransport {
		multiplier = 3
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= multiplier
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
