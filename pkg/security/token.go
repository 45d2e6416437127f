package security

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenSize is the number of random bytes in an opaque token. 32 bytes
// gives 256 bits of entropy before hex encoding.
const tokenSize = 32

// MakeToken returns a new opaque token for the verification and reset
// flows. Tokens are plain random strings, not structured credentials.
func MakeToken() (string, error) {
	b := make([]byte, tokenSize)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
