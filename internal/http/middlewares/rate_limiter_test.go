package middlewares

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterRefill(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(2, 3)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"), "burst %d", i)
	}
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	// half a second refills one token at 2/s
	now = now.Add(500 * time.Millisecond)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	// refill stops at burst
	now = now.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"))
	}
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiterPrune(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(time.Minute)
	rl.Allow("b")

	assert.Equal(t, 1, rl.Prune(30*time.Second))
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "b")
}
