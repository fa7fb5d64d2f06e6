package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateID returns a random identifier with a readable prefix, e.g.
// "portal_3f2a9c0d1b4e5f67".
func GenerateID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

// GenerateInstanceID identifies one running portal process, used to tell
// locally produced events from those relayed by other instances.
func GenerateInstanceID() string {
	return GenerateID("portal")
}
