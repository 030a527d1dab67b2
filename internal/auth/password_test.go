// ABOUTME: Unit tests for bcrypt password hashing
// ABOUTME: Tests hash round-trip and rejection of wrong passwords

package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "correct horse battery staple" {
		t.Error("hash equals plaintext password")
	}

	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("CheckPassword() = false for correct password")
	}

	if CheckPassword(hash, "wrong password") {
		t.Error("CheckPassword() = true for wrong password")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	if CheckPassword("not-a-bcrypt-hash", "anything") {
		t.Error("CheckPassword() = true for invalid hash")
	}
}
