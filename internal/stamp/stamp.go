// Package stamp provides the compilation timestamps used to memoise
// semantic checks.
package stamp

import (
	"fmt"

	"go.uber.org/atomic"
)

// Timestamp is an opaque, totally ordered compilation cycle marker.
// The zero value means "never checked" and is older than every issued stamp.
type Timestamp struct {
	n uint64
}

// IsLess reports whether t was issued before o.
func (t Timestamp) IsLess(o Timestamp) bool { return t.n < o.n }

// IsZero reports whether t was never issued.
func (t Timestamp) IsZero() bool { return t.n == 0 }

func (t Timestamp) String() string {
	if t.n == 0 {
		return "ts(never)"
	}
	return fmt.Sprintf("ts(%d)", t.n)
}

// Clock issues strictly increasing timestamps.
type Clock struct {
	last *atomic.Uint64
}

func NewClock() *Clock {
	return &Clock{last: atomic.NewUint64(0)}
}

// Next returns a timestamp newer than every one issued before.
func (c *Clock) Next() Timestamp {
	return Timestamp{n: c.last.Inc()}
}

// Last returns the most recently issued timestamp, or the zero value.
func (c *Clock) Last() Timestamp {
	return Timestamp{n: c.last.Load()}
}
