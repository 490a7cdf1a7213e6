// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start a daily game (creates or reuses session)
//   - POST /daily/press       → submit a press for today's daily game
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Everyone who plays on a given date faces the same signal sequence: the
// engine's random source is seeded deterministically from date + salt.
// Each user can play once per day (enforced by DB + in-memory session).
// Sessions are held in memory for active play and persisted to DB on loss.

package httpserver

import (
	"encoding/json"
	mrand "math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkaspar/simon-server/internal/daily"
	"github.com/mkaspar/simon-server/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailySession // active sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient in-memory state for an in-progress daily game.
type dailySession struct {
	GameID   string
	UserID   string
	Date     string
	Engine   *game.Engine
	Start    time.Time
	Finished bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     getEnv("DAILY_SALT", "local_dev_salt"),
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/press", dd.handlePress)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// dateKeyNow returns today's date key and the deterministic engine seed.
func (d *dailyServer) dateKeyNow() (date string, seed int64) {
	now := time.Now().UTC()
	return daily.DateKey(now), daily.Seed(now, d.salt)
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) (string, bool) {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID, true
	}
	return d.srv.ensureAnonID(w, r), true
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID string  `json:"gameId"`
	Date   string  `json:"date"`
	Played bool    `json:"played"`
	Round  int     `json:"round"`
	Events []Event `json:"events"`
}

// handleNew creates or reuses a daily session for the current date.
// - If user already has a DB row for today → return Played=true.
// - Otherwise create/reuse an in-memory session and return the round-one replay.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid, ok := d.userIDWithAnon(w, r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	date, seed := d.dateKeyNow()

	// Check if already played (persisted in DB).
	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: "", Date: date, Played: true})
		return
	}

	// Reuse or create session in memory.
	key := uid + "|" + date
	d.mu.Lock()
	if sess, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dailyNewRes{
			GameID: sess.GameID,
			Date:   date,
			Round:  sess.Engine.Round(),
		})
		return
	}
	rec := &eventRecorder{}
	eng := game.New(rec, mrand.New(mrand.NewSource(seed)))
	eng.StartGame()
	eng.SetListener(nil)
	sess := &dailySession{
		GameID: eng.ID,
		UserID: uid,
		Date:   date,
		Engine: eng,
		Start:  time.Now(),
	}
	d.sessions[key] = sess
	d.mu.Unlock()

	_ = json.NewEncoder(w).Encode(dailyNewRes{
		GameID: sess.GameID,
		Date:   date,
		Round:  eng.Round(),
		Events: rec.events,
	})
}

// -----------------------------------------------------------------------------
// /daily/press

// dailyPressReq is the request payload for /daily/press.
type dailyPressReq struct {
	GameID string `json:"gameId"`
	Signal string `json:"signal"`
}

// dailyPressRes is the response payload for /daily/press.
type dailyPressRes struct {
	State  string  `json:"state"` // awaiting | lost | locked
	Round  int     `json:"round"`
	Events []Event `json:"events"`
}

// handlePress applies one press to today's daily session.
// - Ensures valid GameID and signal.
// - Rejects if no session; a finished session returns "locked".
// - On a loss, persists rounds survived + elapsed time to the DB.
func (d *dailyServer) handlePress(w http.ResponseWriter, r *http.Request) {
	uid, ok := d.userIDWithAnon(w, r)
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var p dailyPressReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sig := game.Signal(strings.ToLower(strings.TrimSpace(p.Signal)))
	if p.GameID == "" || !sig.Valid() {
		http.Error(w, `{"error":"invalid"}`, http.StatusBadRequest)
		return
	}

	date, _ := d.dateKeyNow()

	// Find session.
	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.GameID != p.GameID {
		http.Error(w, `{"error":"no_session"}`, http.StatusConflict)
		return
	}
	if sess.Finished {
		_ = json.NewEncoder(w).Encode(dailyPressRes{State: "locked", Round: sess.Engine.Round()})
		return
	}

	rec := &eventRecorder{}
	sess.Engine.SetListener(rec)
	sess.Engine.SubmitAction(sig)
	sess.Engine.SetListener(nil)

	state := sess.Engine.State()
	if state != "lost" {
		_ = json.NewEncoder(w).Encode(dailyPressRes{State: state, Round: sess.Engine.Round(), Events: rec.events})
		return
	}

	// Loss ends the daily attempt; persist and lock the session.
	d.mu.Lock()
	sess.Finished = true
	d.mu.Unlock()

	survived := sess.Engine.Round() - 1
	if survived < 0 {
		survived = 0
	}
	elapsed := int(time.Since(sess.Start).Milliseconds())
	_ = d.store.InsertResult(r.Context(), daily.Result{
		UserID: uid, Date: date, Rounds: survived, ElapsedMs: elapsed,
	})
	_ = json.NewEncoder(w).Encode(dailyPressRes{State: "lost", Round: sess.Engine.Round(), Events: rec.events})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date, _ = d.dateKeyNow()
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
