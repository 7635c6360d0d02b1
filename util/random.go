package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateObjectName returns a random datastore object name split into two
// container levels, eg "ab/cd/ef0123...".
func GenerateObjectName() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := hex.EncodeToString(b)
	return s[0:2] + "/" + s[2:4] + "/" + s[4:], nil
}
