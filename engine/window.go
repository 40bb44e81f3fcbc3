package engine

import "time"

// Clock abstracts time so tests can drive the protection window
// deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ProtectionWindow is the short interval after a successful local write
// during which inbound realtime updates for the business are ignored. It
// prevents a device's own echo from flickering the UI back to a stale
// status. The zero value is an expired window.
type ProtectionWindow struct {
	expiresAt time.Time
}

// OpenWindow starts a window lasting d from now.
func OpenWindow(now time.Time, d time.Duration) ProtectionWindow {
	return ProtectionWindow{expiresAt: now.Add(d)}
}

// Active reports whether the window is still in effect. Expiry is purely
// time-based; nothing cancels a window early.
func (w ProtectionWindow) Active(now time.Time) bool {
	return now.Before(w.expiresAt)
}
