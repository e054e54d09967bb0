// Package sign implements the score submission signature shared by the
// game client and the server-side verifier.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Score signs a submission with HMAC-SHA256 over the pipe-joined fields.
// Both sides must build the exact same string or verification fails.
func Score(secret, playerID, mapID string, score int, clientTimestamp int64) string {
	payload := fmt.Sprintf("%s|%s|%d|%d", playerID, mapID, score, clientTimestamp)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a submission signature in constant time.
func Verify(secret, playerID, mapID string, score int, clientTimestamp int64, signature string) bool {
	want := Score(secret, playerID, mapID, score, clientTimestamp)
	return hmac.Equal([]byte(want), []byte(signature))
}
