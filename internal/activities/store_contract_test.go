package activities

import (
	"context"
	"fmt"
	"sync"
	"testing"

	apperrors "activities-service/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Shared Store Contract
// ==========================

type storeFactory func(t *testing.T, seed []Activity, opts Options) Store

func testSeed() []Activity {
	return []Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Math Club",
			Description:     "Solve challenging problems",
			Schedule:        "Tuesdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 3,
			Participants:    []string{"james@mergington.edu"},
		},
	}
}

func participantsOf(t *testing.T, s Store, activity string) []string {
	t.Helper()
	registry, err := s.List(context.Background())
	require.NoError(t, err)
	a, ok := registry[activity]
	require.True(t, ok, "activity %q missing", activity)
	return a.Participants
}

func runStoreContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("list returns every activity with participants", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		registry, err := s.List(ctx)
		require.NoError(t, err)

		require.Len(t, registry, 2)
		chess := registry["Chess Club"]
		assert.Equal(t, "Fridays, 3:30 PM - 5:00 PM", chess.Schedule)
		assert.Equal(t, 12, chess.MaxParticipants)
		assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, chess.Participants)
		assert.NotNil(t, registry["Math Club"].Participants)
	})

	t.Run("signup appends and preserves order", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		require.NoError(t, s.Signup(ctx, "Chess Club", "a@b.com"))

		assert.Equal(t,
			[]string{"michael@mergington.edu", "daniel@mergington.edu", "a@b.com"},
			participantsOf(t, s, "Chess Club"))
	})

	t.Run("duplicate signup is rejected without mutation", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		require.NoError(t, s.Signup(ctx, "Chess Club", "a@b.com"))

		err := s.Signup(ctx, "Chess Club", "a@b.com")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadySignedUp))
		assert.Len(t, participantsOf(t, s, "Chess Club"), 3)
	})

	t.Run("signup to unknown activity", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		err := s.Signup(ctx, "Underwater Basket Weaving", "a@b.com")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeActivityNotFound))

		registry, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, registry, 2)
	})

	t.Run("unregister removes participant", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		require.NoError(t, s.Unregister(ctx, "Chess Club", "michael@mergington.edu"))
		assert.Equal(t, []string{"daniel@mergington.edu"}, participantsOf(t, s, "Chess Club"))
	})

	t.Run("unregister absent participant", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		err := s.Unregister(ctx, "Chess Club", "a@b.com")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeParticipantNotFound))
		assert.Len(t, participantsOf(t, s, "Chess Club"), 2)
	})

	t.Run("unregister from unknown activity", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		err := s.Unregister(ctx, "Underwater Basket Weaving", "a@b.com")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeActivityNotFound))
	})

	t.Run("capacity is descriptive by default", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Signup(ctx, "Math Club", fmt.Sprintf("student%d@mergington.edu", i)))
		}
		assert.Len(t, participantsOf(t, s, "Math Club"), 6)
	})

	t.Run("capacity enforced when enabled", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{EnforceCapacity: true})
		require.NoError(t, s.Signup(ctx, "Math Club", "one@mergington.edu"))
		require.NoError(t, s.Signup(ctx, "Math Club", "two@mergington.edu"))

		err := s.Signup(ctx, "Math Club", "three@mergington.edu")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeActivityFull))
		assert.Len(t, participantsOf(t, s, "Math Club"), 3)
	})

	t.Run("concurrent signups of one email admit exactly one", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		const workers = 20

		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.Signup(ctx, "Chess Club", "race@b.com")
			}(i)
		}
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadySignedUp), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, successes)

		count := 0
		for _, p := range participantsOf(t, s, "Chess Club") {
			if p == "race@b.com" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("concurrent signups of distinct emails all land", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		const workers = 10

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Signup(ctx, "Chess Club", fmt.Sprintf("student%d@mergington.edu", i)))
			}(i)
		}
		wg.Wait()

		assert.Len(t, participantsOf(t, s, "Chess Club"), 2+workers)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t, testSeed(), Options{})
		assert.NoError(t, s.Ping(ctx))
	})
}
