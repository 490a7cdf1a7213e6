package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic engine seed for a date using
// HMAC(salt, YYYY-MM-DD). Every player who starts the daily challenge
// on the same date gets the same signal sequence.
func Seed(date time.Time, salt string) int64 {
	dk := DateKey(date)
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(dk))
	sum := h.Sum(nil)
	// take first 8 bytes; mask the sign bit so the seed is stable across
	// int64 representations
	n := binary.BigEndian.Uint64(sum[:8])
	return int64(n &^ (1 << 63))
}
