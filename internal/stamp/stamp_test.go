package stamp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestZeroIsOlderThanIssued(t *testing.T) {
	c := NewClock()
	var never Timestamp
	require.True(t, never.IsZero())
	require.Equal(t, never, c.Last())

	ts := c.Next()
	require.True(t, never.IsLess(ts))
	require.False(t, ts.IsLess(never))
	require.False(t, ts.IsLess(ts))
	require.Equal(t, ts, c.Last())
}

func TestClockMonotoneRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := NewClock()
		n := rapid.IntRange(1, 50).Draw(t, "n")
		prev := c.Next()
		for i := 0; i < n; i++ {
			next := c.Next()
			if !prev.IsLess(next) {
				t.Fatalf("%v is not older than %v", prev, next)
			}
			prev = next
		}
	})
}
