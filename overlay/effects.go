package overlay

import (
	"log/slog"
	"time"
)

// Effects is the presentation boundary. Calls are fire-and-forget; the
// overlay never consumes a return value beyond the flash cleanup handle,
// which it invokes on alert completion or early teardown.
type Effects interface {
	// Celebrate plays the celebration of the given kind scaled by magnitude
	// (months, bits, viewers).
	Celebrate(kind string, magnitude int)
	// Flash tints the screen with color for the given duration and returns a
	// cleanup handle. The handle may be nil.
	Flash(color string, duration time.Duration) func()
}

// NopEffects discards every effect. Useful default and test stand-in.
type NopEffects struct{}

func (NopEffects) Celebrate(string, int) {}

func (NopEffects) Flash(string, time.Duration) func() { return nil }

// LogEffects records effect calls to the structured log. The browser-side
// renderer performs the actual drawing off the state stream; the log exists
// so headless runs still show what would have played.
type LogEffects struct{}

func (LogEffects) Celebrate(kind string, magnitude int) {
	slog.Info("effect: celebrate", slog.String("kind", kind), slog.Int("magnitude", magnitude))
}

func (LogEffects) Flash(color string, duration time.Duration) func() {
	slog.Info("effect: flash", slog.String("color", color), slog.Duration("duration", duration))
	return nil
}
