package uid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewPlayerID generates the opaque per-connection player id. It only
// needs to be unique for the life of the process, not guessable.
func NewPlayerID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
