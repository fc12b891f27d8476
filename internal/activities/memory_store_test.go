package activities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T, seed []Activity, opts Options) Store {
		return NewMemoryStore(seed, opts)
	})
}

func TestMemoryStore_ListIsACopy(t *testing.T) {
	s := NewMemoryStore(testSeed(), Options{})

	registry, err := s.List(context.Background())
	require.NoError(t, err)

	chess := registry["Chess Club"]
	chess.Participants[0] = "mallory@evil.com"
	registry["Chess Club"] = chess
	delete(registry, "Math Club")

	again, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "michael@mergington.edu", again["Chess Club"].Participants[0])
	assert.Contains(t, again, "Math Club")
}

func TestMemoryStore_DoesNotAliasSeed(t *testing.T) {
	seed := testSeed()
	s := NewMemoryStore(seed, Options{})

	require.NoError(t, s.Unregister(context.Background(), "Chess Club", "michael@mergington.edu"))
	assert.Equal(t, "michael@mergington.edu", seed[0].Participants[0])
}
