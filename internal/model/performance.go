// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// =============================================================================
// PERFORMANCE COUNTERS
// =============================================================================

// Performance holds the counters shown next to a streaming reply.
// Values are derived from the stream and never persisted.
type Performance struct {
	// TimeToFirst is the delay between submit and the first assistant chunk.
	TimeToFirst time.Duration

	// TokensPerSecond is the generation speed of the current turn.
	TokensPerSecond float64

	// TotalTokens is the cumulative token count across turns.
	TotalTokens int
}

// Format returns a compact representation, e.g. "TTFT 234ms | 51.2 tok/s | 128 tokens".
func (p Performance) Format() string {
	return fmt.Sprintf("TTFT %dms | %.1f tok/s | %d tokens",
		p.TimeToFirst.Milliseconds(), p.TokensPerSecond, p.TotalTokens)
}

// TokensPerSecond computes a rate, returning 0 for a non-positive interval.
func TokensPerSecond(tokens int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(tokens) / elapsed.Seconds()
}
