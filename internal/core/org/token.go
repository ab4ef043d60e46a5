package org

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const inviteValidity = 7 * 24 * time.Hour

// newInviteToken returns 128 bits from the CSPRNG as 32 hex characters.
func newInviteToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
