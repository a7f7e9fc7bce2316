// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package budget tracks a wall-clock allowance for a pipeline run so stages
// can stop early and report partial progress instead of being cut off.
package budget

import "time"

// Budget is a deadline measured from its creation. The zero value has no
// deadline and never reports exhaustion.
type Budget struct {
	start    time.Time
	duration time.Duration
	now      func() time.Time
}

// New starts a budget of the given number of seconds.
func New(seconds int) *Budget {
	return newAt(time.Duration(seconds)*time.Second, time.Now)
}

// NewWithClock starts a budget of the given number of seconds measured on
// now instead of the wall clock, so callers can drive exhaustion
// deterministically.
func NewWithClock(seconds int, now func() time.Time) *Budget {
	return newAt(time.Duration(seconds)*time.Second, now)
}

func newAt(d time.Duration, now func() time.Time) *Budget {
	return &Budget{start: now(), duration: d, now: now}
}

// Remaining is the time left before exhaustion; negative once exhausted.
func (b *Budget) Remaining() time.Duration {
	if b == nil || b.now == nil {
		return time.Duration(1<<62 - 1)
	}
	return b.duration - b.now().Sub(b.start)
}

// Exceeded reports whether the budget has run out.
func (b *Budget) Exceeded() bool {
	return b.Remaining() <= 0
}

// ExceededWithin reports whether less than margin remains. Stages that make
// slow external calls check this before starting one.
func (b *Budget) ExceededWithin(margin time.Duration) bool {
	return b.Remaining() <= margin
}

// Elapsed is the time consumed so far.
func (b *Budget) Elapsed() time.Duration {
	if b == nil || b.now == nil {
		return 0
	}
	return b.now().Sub(b.start)
}
