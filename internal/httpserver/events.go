// internal/httpserver/events.go
//
// Wire representation of engine notifications. Handlers attach a fresh
// recorder to the session for the duration of one command and return the
// captured events, in emission order, in the JSON response. The client
// replays "flash" events itself, using position/roundCount to shrink the
// per-step delay as rounds grow.

package httpserver

import "github.com/mkaspar/simon-server/internal/game"

// Event is one engine notification, tagged by Type:
//   - "totalRounds":  Total
//   - "progress":     Current, Total
//   - "roundStarted": Round
//   - "flash":        Signal, Position, RoundCount
//   - "lost":         no payload
type Event struct {
	Type       string      `json:"type"`
	Total      int         `json:"total,omitempty"`
	Current    int         `json:"current"`
	Round      int         `json:"round,omitempty"`
	Signal     game.Signal `json:"signal,omitempty"`
	Position   int         `json:"position"`
	RoundCount int         `json:"roundCount,omitempty"`
}

// eventRecorder implements game.Listener by appending wire events.
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) TotalRoundsChanged(total int) {
	r.events = append(r.events, Event{Type: "totalRounds", Total: total})
}

func (r *eventRecorder) SignalToDisplay(sig game.Signal, position, roundCount int) {
	r.events = append(r.events, Event{Type: "flash", Signal: sig, Position: position, RoundCount: roundCount})
}

func (r *eventRecorder) ProgressChanged(current, total int) {
	r.events = append(r.events, Event{Type: "progress", Current: current, Total: total})
}

func (r *eventRecorder) RoundStarted(round int) {
	r.events = append(r.events, Event{Type: "roundStarted", Round: round})
}

func (r *eventRecorder) PlayerLost() {
	r.events = append(r.events, Event{Type: "lost"})
}
