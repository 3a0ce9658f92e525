package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if err := VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("VerifyPassword with correct password: %v", err)
	}
	if err := VerifyPassword(hash, "wrong password"); err == nil {
		t.Error("VerifyPassword should fail for a wrong password")
	}
}

func TestIsPasswordValid(t *testing.T) {
	if IsPasswordValid("short") {
		t.Error("passwords under the minimum length should be invalid")
	}
	if !IsPasswordValid("longenough") {
		t.Error("passwords at or above the minimum length should be valid")
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	p1, err := GenerateRandomPassword()
	if err != nil {
		t.Fatalf("GenerateRandomPassword: %v", err)
	}
	p2, err := GenerateRandomPassword()
	if err != nil {
		t.Fatalf("GenerateRandomPassword: %v", err)
	}

	if p1 == p2 {
		t.Error("random passwords should not repeat")
	}
	if !IsPasswordValid(p1) {
		t.Errorf("generated password %q should satisfy the length policy", p1)
	}
}
