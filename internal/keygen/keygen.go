// Package keygen generates short access keys students type to unlock an exam.
package keygen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyLength   = 6
	maxAttempts = 10
)

var ErrExhausted = errors.New("failed to generate unique exam key")

// ExistsFunc reports whether a key is already taken
type ExistsFunc func(ctx context.Context, key string) (bool, error)

// New returns a random 6-char uppercase alphanumeric key
func New() (string, error) {
	b := make([]byte, keyLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	key := make([]byte, keyLength)
	for i := range key {
		key[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(key), nil
}

// Unique draws keys until exists reports a free one
func Unique(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		key, err := New()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("check exam key: %w", err)
		}
		if !taken {
			return key, nil
		}
	}
	return "", ErrExhausted
}
