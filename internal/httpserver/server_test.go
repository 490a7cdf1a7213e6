package httpserver

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaspar/simon-server/internal/game"
	"github.com/mkaspar/simon-server/internal/store"
)

// testSchema mirrors sql/001_init.sql + sql/002_daily.sql.
const testSchema = `
CREATE TABLE users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE COLLATE NOCASE,
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL,
    games_played INTEGER NOT NULL DEFAULT 0,
    best_round INTEGER NOT NULL DEFAULT 0,
    total_rounds INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE games (
    id TEXT PRIMARY KEY,
    user_id TEXT REFERENCES users(id),
    anonymous_id TEXT,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    status TEXT NOT NULL DEFAULT 'playing',
    rounds INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE daily_results (
    user_id TEXT NOT NULL,
    date TEXT NOT NULL,
    rounds INTEGER NOT NULL,
    elapsed_ms INTEGER NOT NULL,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
    UNIQUE(user_id, date)
);`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1) // :memory: is per-connection
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	ts := httptest.NewServer(New(store.NewMemoryStore(), db).Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	ts.Client().Jar = jar
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any, out any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := ts.Client().Post(ts.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

// flashes extracts the replayed signals, in order, from an event list.
func flashes(events []Event) []game.Signal {
	var out []game.Signal
	for _, e := range events {
		if e.Type == "flash" {
			out = append(out, e.Signal)
		}
	}
	return out
}

func other(s game.Signal) game.Signal {
	if s == game.SignalRed {
		return game.SignalBlue
	}
	return game.SignalRed
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	res, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestGameFlowCorrectThenWrong(t *testing.T) {
	ts := newTestServer(t)

	var created newGameRes
	res := postJSON(t, ts, "/game/new", newGameReq{Seed: 99}, &created)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, created.GameID)
	assert.Equal(t, "awaiting", created.State)
	assert.Equal(t, 1, created.Round)

	// Round one replays exactly one signal.
	seq := flashes(created.Events)
	require.Len(t, seq, 1)

	// Reproduce it: the round completes and round two replays two signals.
	var pressed pressRes
	res = postJSON(t, ts, "/game/press", pressReq{GameID: created.GameID, Signal: string(seq[0])}, &pressed)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "awaiting", pressed.State)
	assert.Equal(t, 2, pressed.Round)
	assert.Equal(t, 0, pressed.Progress)
	seq = flashes(pressed.Events)
	require.Len(t, seq, 2)

	// Match the first element of round two.
	res = postJSON(t, ts, "/game/press", pressReq{GameID: created.GameID, Signal: string(seq[0])}, &pressed)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "awaiting", pressed.State)
	assert.Equal(t, 1, pressed.Progress)

	// Miss the second: lost, state frozen at round two.
	res = postJSON(t, ts, "/game/press", pressReq{GameID: created.GameID, Signal: string(other(seq[1]))}, &pressed)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "lost", pressed.State)
	assert.Equal(t, 2, pressed.Round)

	// Snapshot agrees.
	var snap gameStateRes
	sres, err := ts.Client().Get(ts.URL + "/game/" + created.GameID)
	require.NoError(t, err)
	defer sres.Body.Close()
	require.NoError(t, json.NewDecoder(sres.Body).Decode(&snap))
	assert.Equal(t, "lost", snap.State)
	assert.Equal(t, 2, snap.Round)
}

func TestPressValidation(t *testing.T) {
	ts := newTestServer(t)

	res := postJSON(t, ts, "/game/press", pressReq{GameID: "x", Signal: "green"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = postJSON(t, ts, "/game/press", pressReq{GameID: "missing", Signal: "red"}, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSignupLoginAndStats(t *testing.T) {
	ts := newTestServer(t)

	res := postJSON(t, ts, "/auth/signup", map[string]string{
		"Username": "player_one", "Password": "hunter22222",
	}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Cookie jar carries the token; /auth/me resolves the user.
	mres, err := ts.Client().Get(ts.URL + "/auth/me")
	require.NoError(t, err)
	defer mres.Body.Close()
	require.Equal(t, http.StatusOK, mres.StatusCode)
	var me authUser
	require.NoError(t, json.NewDecoder(mres.Body).Decode(&me))
	assert.Equal(t, "player_one", me.Username)

	// Lose a game while authed: stats bump.
	var created newGameRes
	postJSON(t, ts, "/game/new", newGameReq{Seed: 7}, &created)
	seq := flashes(created.Events)
	require.Len(t, seq, 1)
	var pressed pressRes
	postJSON(t, ts, "/game/press", pressReq{GameID: created.GameID, Signal: string(other(seq[0]))}, &pressed)
	require.Equal(t, "lost", pressed.State)

	sres, err := ts.Client().Get(ts.URL + "/stats/me")
	require.NoError(t, err)
	defer sres.Body.Close()
	require.Equal(t, http.StatusOK, sres.StatusCode)
	var stats map[string]any
	require.NoError(t, json.NewDecoder(sres.Body).Decode(&stats))
	assert.EqualValues(t, 1, stats["gamesPlayed"])
	assert.EqualValues(t, 0, stats["bestRound"]) // lost in round one: zero survived

	// Logout, then /stats/me is gated again.
	postJSON(t, ts, "/auth/logout", map[string]string{}, nil)
	gres, err := ts.Client().Get(ts.URL + "/stats/me")
	require.NoError(t, err)
	defer gres.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, gres.StatusCode)
}

func TestDailyOnceAndLeaderboard(t *testing.T) {
	ts := newTestServer(t)

	var created dailyNewRes
	res := postJSON(t, ts, "/daily/new", map[string]string{}, &created)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.False(t, created.Played)
	require.NotEmpty(t, created.GameID)
	seq := flashes(created.Events)
	require.Len(t, seq, 1)

	// Reusing the session returns the same game.
	var again dailyNewRes
	postJSON(t, ts, "/daily/new", map[string]string{}, &again)
	assert.Equal(t, created.GameID, again.GameID)

	// Lose immediately: the result is persisted.
	var pressed dailyPressRes
	postJSON(t, ts, "/daily/press", dailyPressReq{GameID: created.GameID, Signal: string(other(seq[0]))}, &pressed)
	assert.Equal(t, "lost", pressed.State)

	// Further presses hit the locked session.
	postJSON(t, ts, "/daily/press", dailyPressReq{GameID: created.GameID, Signal: string(seq[0])}, &pressed)
	assert.Equal(t, "locked", pressed.State)

	// A new /daily/new reports already played.
	var replay dailyNewRes
	postJSON(t, ts, "/daily/new", map[string]string{}, &replay)
	assert.True(t, replay.Played)

	// Leaderboard has this attempt.
	lres, err := ts.Client().Get(ts.URL + "/daily/leaderboard")
	require.NoError(t, err)
	defer lres.Body.Close()
	var lb lbRes
	require.NoError(t, json.NewDecoder(lres.Body).Decode(&lb))
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 0, lb.Top[0].Rounds)
}
