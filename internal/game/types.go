// internal/game/types.go
//
// Core type definitions for the Simon game engine.
// Defines:
//   - Signal: one of the two cues the player can be shown / can press.
//   - Listener: observer interface the engine notifies on state changes.
//   - RandSource: injectable randomness for signal generation.

package game

// Signal identifies one of the two game cues.
// Possible values:
//   - "red":  the red control.
//   - "blue": the blue control.
type Signal string

const (
	SignalRed  Signal = "red"
	SignalBlue        = "blue"
)

// Valid reports whether s is one of the two known signals.
func (s Signal) Valid() bool { return s == SignalRed || s == SignalBlue }

// Listener receives engine notifications. All methods are invoked
// synchronously, in a fixed order, before the triggering operation
// returns. Any pacing or animation of the replay is the listener's job;
// position and roundCount are provided so a consumer can shrink the
// per-step delay as rounds grow.
type Listener interface {
	// TotalRoundsChanged fires when the round counter changes.
	TotalRoundsChanged(total int)

	// SignalToDisplay fires once per sequence element during replay.
	SignalToDisplay(sig Signal, position, roundCount int)

	// ProgressChanged fires with the player's progress through the
	// current round. A (0, total) announcement is emitted at every
	// round start, before any input.
	ProgressChanged(current, total int)

	// RoundStarted fires when a new round begins.
	RoundStarted(round int)

	// PlayerLost fires on a mismatched press. The engine stays frozen
	// until the next StartGame.
	PlayerLost()
}

// RandSource supplies uniform random ints; *math/rand.Rand satisfies it.
// Tests can substitute a scripted source.
type RandSource interface {
	Intn(n int) int
}
