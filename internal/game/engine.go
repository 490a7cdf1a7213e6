// internal/game/engine.go
//
// Core game engine for a single Simon session.
// Responsibilities:
//   - Grow a random two-signal sequence by one element per round.
//   - Replay the full sequence to the attached listener each round.
//   - Validate player presses against the sequence and track progress.
//   - Track state transitions: awaiting → (new round | lost).
//
// Notes:
//   - The engine is synchronous: every notification for an operation is
//     emitted, in order, before the operation returns.
//   - Exported operations serialize on an internal mutex; handlers may
//     share one engine across requests.
//   - randomID() is a compact hex identifier for correlating server state.
package game

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand"
	"sync"
	"time"
)

// Engine holds the state of a single Simon game session.
type Engine struct {
	ID string // Unique session identifier (random hex string).

	mu       sync.Mutex
	round    int      // Rounds started since the last StartGame.
	sequence []Signal // Full signal history; +1 element per round.
	progress int      // Next sequence index the player must match.
	lost     bool     // Set on mismatch; cleared only by StartGame.

	rng      RandSource
	listener Listener
}

// New constructs an engine with the given listener and random source.
// A nil rng falls back to a time-seeded math/rand source so successive
// game runs differ; a nil listener discards notifications.
func New(l Listener, rng RandSource) *Engine {
	if rng == nil {
		rng = mrand.New(mrand.NewSource(time.Now().UnixNano()))
	}
	if l == nil {
		l = nopListener{}
	}
	return &Engine{
		ID:       randomID(),
		sequence: []Signal{},
		rng:      rng,
		listener: l,
	}
}

// SetListener swaps the notification target. Useful when a per-request
// recorder observes a long-lived session.
func (e *Engine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l == nil {
		l = nopListener{}
	}
	e.listener = l
}

// StartGame resets all state and begins round one. Callable from any
// state, including after a loss.
func (e *Engine) StartGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.round = 0
	e.sequence = e.sequence[:0]
	e.progress = 0
	e.lost = false
	e.addRound()
}

// AddRound starts the next round directly. Exposed for tests; normal
// play reaches it through StartGame and completed rounds.
func (e *Engine) AddRound() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.addRound()
}

// addRound increments the round counter, resets progress, appends one
// random signal, and replays the whole sequence. Caller holds e.mu.
func (e *Engine) addRound() {
	e.round++
	e.progress = 0
	e.sequence = append(e.sequence, e.randomSignal())

	e.listener.TotalRoundsChanged(e.round)
	e.listener.ProgressChanged(e.progress, e.round)
	e.listener.RoundStarted(e.round)

	for i, sig := range e.sequence {
		e.listener.SignalToDisplay(sig, i, e.round)
	}
}

// SubmitAction checks one player press against the sequence.
//
// A correct press advances progress (with a progress notification);
// completing the sequence immediately cascades into the next round.
// Anything else — wrong signal, press with no active sequence, or any
// press after a loss — emits PlayerLost and mutates nothing. A loss is
// a normal game outcome, not an error; restarting requires StartGame.
func (e *Engine) SubmitAction(sig Signal) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lost && e.progress < len(e.sequence) && e.sequence[e.progress] == sig {
		e.progress++
		e.listener.ProgressChanged(e.progress, e.round)
		if e.progress == len(e.sequence) {
			e.addRound()
		}
		return
	}

	e.lost = true
	e.listener.PlayerLost()
}

// randomSignal picks red or blue with equal probability.
func (e *Engine) randomSignal() Signal {
	if e.rng.Intn(2) == 0 {
		return SignalRed
	}
	return SignalBlue
}

// ------------------------------ accessors ----------------------------------

// Round returns the current round number.
func (e *Engine) Round() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round
}

// Progress returns how many signals the player has matched this round.
func (e *Engine) Progress() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Sequence returns a copy of the signal history.
func (e *Engine) Sequence() []Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Signal, len(e.sequence))
	copy(out, e.sequence)
	return out
}

// State reports a coarse string representation of the session state:
// "idle" before the first round, then "awaiting" or "lost".
func (e *Engine) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.lost:
		return "lost"
	case e.round == 0:
		return "idle"
	default:
		return "awaiting"
	}
}

// nopListener discards all notifications.
type nopListener struct{}

func (nopListener) TotalRoundsChanged(int)           {}
func (nopListener) SignalToDisplay(Signal, int, int) {}
func (nopListener) ProgressChanged(int, int)         {}
func (nopListener) RoundStarted(int)                 {}
func (nopListener) PlayerLost()                      {}

// randomID returns a compact 16-hex-char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
