package token

import (
	"encoding/hex"
	"testing"
)

func TestNewAssignmentToken(t *testing.T) {
	tok, err := NewAssignmentToken()
	if err != nil {
		t.Fatalf("NewAssignmentToken: %v", err)
	}

	if len(tok) != AssignmentTokenBytes*2 {
		t.Errorf("len = %d, want %d hex characters", len(tok), AssignmentTokenBytes*2)
	}
	if _, err := hex.DecodeString(tok); err != nil {
		t.Errorf("token %q is not valid hex: %v", tok, err)
	}
}

func TestNewAssignmentToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewAssignmentToken()
		if err != nil {
			t.Fatalf("NewAssignmentToken: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated: %s", tok)
		}
		seen[tok] = true
	}
}
