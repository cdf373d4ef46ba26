package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// New creates a prefixed opaque ID, e.g. "bday-V1StGXR8_Z5jdHi6B-myT".
// NanoIDs are URL-friendly, which matters here because event and
// participant ids travel inside shareable links.
func New(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Must is like New but panics when the system cannot produce secure
// randomness. Only for initialization paths and tests.
func Must(prefix string) string {
	id, err := New(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
