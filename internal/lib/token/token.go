// Package token mints the opaque single-use secrets used for email
// verification and password reset links.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const entropyBytes = 32

// New returns a URL-safe token carrying 256 bits of entropy.
func New() (string, error) {
	const op = "token.New"

	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
