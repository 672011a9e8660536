package keygen

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestNew(t *testing.T) {
	for i := 0; i < 50; i++ {
		key, err := New()
		require.NoError(t, err)
		assert.Regexp(t, keyPattern, key)
	}
}

func TestUniqueRetriesOnCollision(t *testing.T) {
	var seen []string
	exists := func(_ context.Context, key string) (bool, error) {
		seen = append(seen, key)
		return len(seen) < 3, nil
	}

	key, err := Unique(context.Background(), exists)
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	assert.Equal(t, seen[2], key)
}

func TestUniqueGivesUp(t *testing.T) {
	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := Unique(context.Background(), exists)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, maxAttempts, calls)
}

func TestUniqueLookupError(t *testing.T) {
	boom := errors.New("mongo down")
	_, err := Unique(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
