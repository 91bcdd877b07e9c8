package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinWindow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	defer l.Stop()

	assert.True(t, l.Allow("user-1"))
	assert.True(t, l.Allow("user-1"))
	assert.False(t, l.Allow("user-1"))
	assert.True(t, l.Allow("user-2"), "keys are independent")
}

func TestAllowSlidesWindow(t *testing.T) {
	l := NewLimiter(1, 30*time.Millisecond)
	defer l.Stop()

	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
	time.Sleep(50 * time.Millisecond)
	assert.True(t, l.Allow("k"))
}

func TestAllowStrictUsesSeparateBucket(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	defer l.Stop()

	assert.True(t, l.AllowStrict("1.2.3.4", 1, time.Minute))
	assert.False(t, l.AllowStrict("1.2.3.4", 1, time.Minute))
	assert.True(t, l.Allow("1.2.3.4"))
}
