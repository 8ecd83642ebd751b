package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// generateSessionID returns a new session id of the form sess_<12hex>.
func generateSessionID() string {
	return "sess_" + randomHex(6)
}

// generateRunID returns a new run id of the form run_<UTC-timestamp>_<4hex>.
func generateRunID() string {
	ts := time.Now().UTC().Format("20060102T150405Z")
	return fmt.Sprintf("run_%s_%s", ts, randomHex(2))
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session: crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(b)
}
