package challenge

import (
	"crypto/rand"
	"fmt"
)

// RandomSalt returns n bytes from the system CSPRNG, for enrolling a new commitment.
func RandomSalt(n int) ([]byte, error) {
	return random(n)
}

// RandomNonce returns n bytes from the system CSPRNG.
func RandomNonce(n int) ([]byte, error) {
	return random(n)
}

func random(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid size %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}
