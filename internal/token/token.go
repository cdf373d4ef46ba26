// Package token implements the organizer capability: an opaque secret
// minted once at event creation. Holding the token is the only thing
// that grants organizer-level operations; there are no accounts.
package token

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Mint creates a fresh capability token. 32 URL-safe characters, never
// derived from anything guessable.
func Mint() (string, error) {
	t, err := gonanoid.New(32)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return t, nil
}
