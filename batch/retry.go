// Copyright 2025 Poiesic Systems
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


package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/scribe/core"
)

// RetryWithBackoff calls operation up to maxAttempts times, sleeping
// baseDelay, 2*baseDelay, 4*baseDelay and so on between attempts. It returns
// nil on the first success and otherwise the last error. Context errors,
// invalid items, unresolved transcripts and skips end the loop at once since
// another attempt cannot change them.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	delay := baseDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation()
		switch {
		case err == nil:
			if attempt > 1 {
				slog.Debug("item succeeded after retry", "attempt", attempt)
			}
			return nil
		case !retryable(err), attempt == maxAttempts:
			return err
		}
		slog.Debug("item failed, retrying", "attempt", attempt, "max_attempts", maxAttempts, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func retryable(err error) bool {
	for _, permanent := range []error{
		context.Canceled,
		context.DeadlineExceeded,
		core.ErrInvalidSourceItem,
		core.ErrTranscriptUnresolved,
		ErrSkipped,
	} {
		if errors.Is(err, permanent) {
			return false
		}
	}
	return true
}
