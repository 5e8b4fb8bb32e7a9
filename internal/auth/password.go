package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only keys on the first 72 bytes of its input, and rejects anything
// longer outright. Passwords may be up to 128 characters, so both sites run
// the password through SHA-256 first and bcrypt the base64 digest (44 bytes,
// no NULs).
func hashPassword(password string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword(digest(password), cost)
}

func verifyPassword(hash []byte, password string) error {
	return bcrypt.CompareHashAndPassword(hash, digest(password))
}

func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
