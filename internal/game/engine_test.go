package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays a fixed list of Intn results, wrapping around.
type scriptedSource struct {
	vals []int
	i    int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}

// recorder captures notifications as comparable strings so ordering
// can be asserted directly.
type recorder struct {
	events []string
}

func (r *recorder) TotalRoundsChanged(total int) {
	r.events = append(r.events, fmt.Sprintf("total=%d", total))
}
func (r *recorder) SignalToDisplay(sig Signal, position, roundCount int) {
	r.events = append(r.events, fmt.Sprintf("flash=%s@%d/%d", sig, position, roundCount))
}
func (r *recorder) ProgressChanged(current, total int) {
	r.events = append(r.events, fmt.Sprintf("progress=%d/%d", current, total))
}
func (r *recorder) RoundStarted(round int) {
	r.events = append(r.events, fmt.Sprintf("round=%d", round))
}
func (r *recorder) PlayerLost() {
	r.events = append(r.events, "lost")
}

func (r *recorder) reset() { r.events = nil }

// count returns how many recorded events have the given prefix.
func (r *recorder) count(prefix string) int {
	n := 0
	for _, e := range r.events {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func TestStartGameResetsToRoundOne(t *testing.T) {
	rec := &recorder{}
	e := New(rec, rand.New(rand.NewSource(1)))

	// StartGame from every reachable state must land on round 1 with a
	// single-element sequence and zero progress.
	for i := 0; i < 3; i++ {
		e.StartGame()
		assert.Equal(t, 1, e.Round())
		assert.Len(t, e.Sequence(), 1)
		assert.Equal(t, 0, e.Progress())
		assert.Equal(t, "awaiting", e.State())
	}

	// Also from Lost.
	wrong := SignalRed
	if e.Sequence()[0] == SignalRed {
		wrong = SignalBlue
	}
	e.SubmitAction(wrong)
	require.Equal(t, "lost", e.State())
	e.StartGame()
	assert.Equal(t, 1, e.Round())
	assert.Len(t, e.Sequence(), 1)
	assert.Equal(t, 0, e.Progress())
	assert.Equal(t, "awaiting", e.State())
}

func TestAddRoundGrowsSequenceMonotonically(t *testing.T) {
	e := New(nil, rand.New(rand.NewSource(7)))
	e.StartGame()
	for i := 0; i < 20; i++ {
		assert.Equal(t, e.Round(), len(e.Sequence()))
		assert.Equal(t, 0, e.Progress())
		e.AddRound()
	}
	assert.Equal(t, 21, e.Round())
}

func TestAddRoundNotificationOrderAndReplayCompleteness(t *testing.T) {
	rec := &recorder{}
	e := New(rec, &scriptedSource{vals: []int{0, 1, 0}}) // red, blue, red

	e.StartGame()
	assert.Equal(t, []string{
		"total=1",
		"progress=0/1",
		"round=1",
		"flash=red@0/1",
	}, rec.events)

	rec.reset()
	e.AddRound()
	assert.Equal(t, []string{
		"total=2",
		"progress=0/2",
		"round=2",
		"flash=red@0/2",
		"flash=blue@1/2",
	}, rec.events)

	rec.reset()
	e.AddRound()
	// One flash per element, positions ascending, roundCount constant.
	require.Equal(t, 3, rec.count("flash="))
	assert.Equal(t, "flash=red@0/3", rec.events[3])
	assert.Equal(t, "flash=blue@1/3", rec.events[4])
	assert.Equal(t, "flash=red@2/3", rec.events[5])
}

func TestSubmitActionCorrectMatchAdvancesAndCascades(t *testing.T) {
	rec := &recorder{}
	e := New(rec, &scriptedSource{vals: []int{0, 1, 0}}) // seq: red, blue, ...

	e.StartGame() // round 1: [red]
	e.AddRound()  // round 2: [red, blue]
	rec.reset()

	e.SubmitAction(SignalRed)
	assert.Equal(t, []string{"progress=1/2"}, rec.events)
	assert.Equal(t, 1, e.Progress())
	assert.Equal(t, 2, e.Round())

	rec.reset()
	e.SubmitAction(SignalBlue)
	// Round completes: progress notification, then the full round-3 cascade.
	require.NotEmpty(t, rec.events)
	assert.Equal(t, "progress=2/2", rec.events[0])
	assert.Equal(t, "total=3", rec.events[1])
	assert.Equal(t, "progress=0/3", rec.events[2])
	assert.Equal(t, "round=3", rec.events[3])
	assert.Equal(t, 3, rec.count("flash="))

	assert.Equal(t, 3, e.Round())
	assert.Len(t, e.Sequence(), 3)
	assert.Equal(t, 0, e.Progress())
}

func TestSubmitActionMismatchFreezesState(t *testing.T) {
	rec := &recorder{}
	e := New(rec, &scriptedSource{vals: []int{0, 0}}) // seq: red, red

	e.StartGame()
	e.AddRound()
	before := e.Sequence()
	rec.reset()

	e.SubmitAction(SignalBlue)
	assert.Equal(t, []string{"lost"}, rec.events)
	assert.Equal(t, "lost", e.State())
	assert.Equal(t, 2, e.Round())
	assert.Equal(t, 0, e.Progress())
	assert.Equal(t, before, e.Sequence())
}

func TestSubmitActionAfterLossStaysLost(t *testing.T) {
	rec := &recorder{}
	e := New(rec, &scriptedSource{vals: []int{0}}) // seq: red

	e.StartGame()
	e.SubmitAction(SignalBlue)
	require.Equal(t, "lost", e.State())
	rec.reset()

	// Even the "correct" signal no longer advances anything.
	e.SubmitAction(SignalRed)
	assert.Equal(t, []string{"lost"}, rec.events)
	assert.Equal(t, 0, e.Progress())
	assert.Equal(t, 1, e.Round())
}

func TestSubmitActionWithoutStartIsALoss(t *testing.T) {
	rec := &recorder{}
	e := New(rec, rand.New(rand.NewSource(3)))

	e.SubmitAction(SignalRed)
	assert.Equal(t, []string{"lost"}, rec.events)
	assert.Equal(t, 0, e.Round())
	assert.Empty(t, e.Sequence())
}

func TestProgressBoundInvariant(t *testing.T) {
	// Drive a seeded engine through many correct rounds and check the
	// progress pointer never escapes [0, len(sequence)].
	e := New(nil, rand.New(rand.NewSource(42)))
	e.StartGame()
	for round := 0; round < 15; round++ {
		seq := e.Sequence()
		for _, sig := range seq {
			assert.GreaterOrEqual(t, e.Progress(), 0)
			assert.LessOrEqual(t, e.Progress(), len(seq))
			e.SubmitAction(sig)
		}
		// Completing the sequence cascaded into a fresh round.
		assert.Equal(t, len(seq)+1, len(e.Sequence()))
		assert.Equal(t, 0, e.Progress())
	}
}

func TestEndToEndScenario(t *testing.T) {
	rec := &recorder{}
	e := New(rec, &scriptedSource{vals: []int{1, 0, 1}}) // blue, red, ...

	// Round 1: [blue]; reproduce it.
	e.StartGame()
	first := e.Sequence()[0]
	require.Equal(t, Signal(SignalBlue), first)
	e.SubmitAction(first)

	// Round 2 began: [blue, red].
	require.Equal(t, 2, e.Round())
	require.Equal(t, []Signal{SignalBlue, SignalRed}, e.Sequence())

	// Wrong press freezes the game at round 2 (round two expects blue first).
	rec.reset()
	e.SubmitAction(SignalRed)
	assert.Equal(t, 1, rec.count("lost"))
	assert.Equal(t, 2, e.Round())
	assert.Equal(t, 0, e.Progress())

	// A fresh StartGame supersedes everything.
	e.StartGame()
	assert.Equal(t, 1, e.Round())
	assert.Len(t, e.Sequence(), 1)
}

func TestRandomSignalIsUniformOverScriptedSource(t *testing.T) {
	// Each Intn(2) result maps to exactly one signal variant.
	e := New(nil, &scriptedSource{vals: []int{0, 1}})
	e.StartGame()
	e.AddRound()
	assert.Equal(t, []Signal{SignalRed, SignalBlue}, e.Sequence())
}

func TestDefaultRandSource(t *testing.T) {
	// nil rng must not panic and must still produce valid signals.
	e := New(nil, nil)
	e.StartGame()
	e.AddRound()
	for _, s := range e.Sequence() {
		assert.True(t, s.Valid())
	}
}

func TestEngineIDsAreUnique(t *testing.T) {
	a := New(nil, nil)
	b := New(nil, nil)
	assert.Len(t, a.ID, 16)
	assert.NotEqual(t, a.ID, b.ID)
}
