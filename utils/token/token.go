package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// AssignmentTokenBytes is the entropy of an assignment token; hex-encoded it
// yields a 64-character opaque string.
const AssignmentTokenBytes = 32

// NewAssignmentToken generates a cryptographically random opaque token used
// to grant course access to invitees who have no account yet.
func NewAssignmentToken() (string, error) {
	buf := make([]byte, AssignmentTokenBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate assignment token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
