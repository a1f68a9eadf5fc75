// Package sound plays game audio cues. Playback is fire-and-forget:
// failures are swallowed, a disabled player is a no-op.
package sound

import (
	"io"
	"os"
)

// Player emits the game's audio cues.
type Player interface {
	// Tick fires once per second inside the final stretch of a round.
	Tick()
	// Finish fires when a round ends.
	Finish()
	// Correct fires on a correct guess.
	Correct()
	// Pass fires on a skipped card.
	Pass()
}

// Bell plays cues as terminal bell characters. The finish cue rings
// twice so it stands apart from the per-event cues.
type Bell struct {
	w       io.Writer
	enabled bool
}

// NewBell returns a Bell writing to stdout. When enabled is false every
// cue is a no-op.
func NewBell(enabled bool) *Bell {
	return &Bell{w: os.Stdout, enabled: enabled}
}

func (b *Bell) ring(times int) {
	if !b.enabled || b.w == nil {
		return
	}
	for i := 0; i < times; i++ {
		if _, err := b.w.Write([]byte{'\a'}); err != nil {
			// Sound failures are non-fatal no-ops.
			_ = err
		}
	}
}

// Tick implements Player.
func (b *Bell) Tick() { b.ring(1) }

// Finish implements Player.
func (b *Bell) Finish() { b.ring(2) }

// Correct implements Player.
func (b *Bell) Correct() { b.ring(1) }

// Pass implements Player.
func (b *Bell) Pass() { b.ring(1) }

// Nop discards every cue.
type Nop struct{}

// Tick implements Player.
func (Nop) Tick() {}

// Finish implements Player.
func (Nop) Finish() {}

// Correct implements Player.
func (Nop) Correct() {}

// Pass implements Player.
func (Nop) Pass() {}
