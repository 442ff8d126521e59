package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain text credential using bcrypt. Used for both
// user passwords and OAuth2 client secrets.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hash with a plain text credential
func ComparePassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
