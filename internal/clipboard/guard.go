package clipboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"otpvault/internal/vclock"
)

// DefaultClearAfter is how long a copied code stays on the clipboard.
const DefaultClearAfter = 30 * time.Second

// ticket tracks one timed clipboard write. The marker distinguishes it
// from any later Copy; only the live ticket may clear.
type ticket struct {
	value     string
	writtenAt time.Time
	marker    string
}

// Guard performs timed, self-clearing clipboard writes. A new Copy
// invalidates the previous ticket before scheduling its own clear, so
// an expiring older timer can never clobber a newer code.
type Guard struct {
	clip       Clipboard
	clock      vclock.Clock
	clearAfter time.Duration

	mu     sync.Mutex
	active *ticket
	timer  vclock.Timer
}

// NewGuard creates a guard over the given clipboard. A non-positive
// clearAfter falls back to DefaultClearAfter.
func NewGuard(clip Clipboard, clock vclock.Clock, clearAfter time.Duration) *Guard {
	if clearAfter <= 0 {
		clearAfter = DefaultClearAfter
	}
	return &Guard{clip: clip, clock: clock, clearAfter: clearAfter}
}

// Copy writes value to the clipboard and schedules a clear.
func (g *Guard) Copy(value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Supersede the previous ticket before anything else: its timer
	// must find a dead marker even if it fires during this call.
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.active = nil

	if err := g.clip.Write(value); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}

	t := &ticket{
		value:     value,
		writtenAt: g.clock.Now(),
		marker:    uuid.NewString(),
	}
	g.active = t
	g.timer = g.clock.AfterFunc(g.clearAfter, func() { g.expire(t.marker) })
	return nil
}

// expire clears the clipboard if, and only if, the ticket identified
// by marker is still live and the clipboard still holds its value.
func (g *Guard) expire(marker string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active == nil || g.active.marker != marker {
		return
	}
	t := g.active
	g.active = nil
	g.timer = nil

	current, err := g.clip.Read()
	if err != nil || current != t.value {
		// The user copied something else — leave it alone.
		return
	}
	_ = g.clip.Write("")
}
