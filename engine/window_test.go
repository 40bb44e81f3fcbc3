package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProtectionWindowExpiry(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := OpenWindow(start, 3*time.Second)

	assert.True(t, w.Active(start))
	assert.True(t, w.Active(start.Add(2999*time.Millisecond)))
	assert.False(t, w.Active(start.Add(3*time.Second)), "expiry instant is outside the window")
	assert.False(t, w.Active(start.Add(time.Minute)))
}

func TestProtectionWindowZeroValueIsExpired(t *testing.T) {
	var w ProtectionWindow
	assert.False(t, w.Active(time.Now()))
}
