// Package ratelimit throttles calls to the carprun MCP tools with one token
// bucket per tool.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/nvandessel/carprun/internal/constants"
)

// Bucket is a token bucket refilled at a fixed rate. It starts full.
// It is safe for concurrent use.
type Bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
	rate   float64 // tokens per second
	burst  int
	now    func() time.Time
}

// NewBucket creates a full bucket refilled at perMinute tokens per minute
// and holding at most burst tokens.
func NewBucket(perMinute float64, burst int) *Bucket {
	return &Bucket{
		tokens: float64(burst),
		rate:   perMinute / 60,
		burst:  burst,
		now:    time.Now,
	}
}

// Take removes one token. On an empty bucket it returns false and the wait
// until the next token; the wait is zero when the bucket never refills.
func (b *Bucket) Take() (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if !b.last.IsZero() {
		if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
			b.tokens = min(b.tokens+b.rate*elapsed, float64(b.burst))
		}
	}
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.rate <= 0 {
		return false, 0
	}
	return false, time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
}

// LimitError is returned for a tool call rejected by its bucket.
type LimitError struct {
	Tool       string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	if e.RetryAfter <= 0 {
		return fmt.Sprintf("rate limit exceeded for %s", e.Tool)
	}
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Tool, e.RetryAfter.Round(time.Millisecond))
}

// ToolLimiters maps tool names to their buckets.
type ToolLimiters map[string]*Bucket

// NewToolLimiters returns the buckets of the carprun tools. Assembling a
// command is cheap; history reads hit the database.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		constants.CommandTool: NewBucket(60, 10),
		constants.HistoryTool: NewBucket(30, 5),
	}
}

// Check takes a token for tool. Tools without a bucket are not limited.
func (tl ToolLimiters) Check(tool string) error {
	b, ok := tl[tool]
	if !ok {
		return nil
	}
	if ok, wait := b.Take(); !ok {
		return &LimitError{Tool: tool, RetryAfter: wait}
	}
	return nil
}
