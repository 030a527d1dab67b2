// ABOUTME: Password hashing and verification using bcrypt
// ABOUTME: Includes a dummy-hash compare to keep login timing constant for unknown emails

package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the email doesn't resolve to a user, so
// login takes the same time whether or not the account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword returns a bcrypt hash of the given password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyCompare burns a bcrypt comparison against a fixed hash. Call it on the
// unknown-email login path to avoid leaking account existence through timing.
func DummyCompare(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
