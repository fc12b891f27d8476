package activities

import (
	"path/filepath"
	"testing"
	"time"

	"activities-service/pkg/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultActivities_SatisfyCatalogSchema(t *testing.T) {
	c := ToCatalog(DefaultActivities(), time.Now())

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, catalog.Save(c, path))

	loaded, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Activities, len(DefaultActivities()))
}

func TestDefaultActivities_ContainsChessClub(t *testing.T) {
	for _, a := range DefaultActivities() {
		if a.Name == "Chess Club" {
			assert.Equal(t, 12, a.MaxParticipants)
			assert.False(t, a.HasParticipant("a@b.com"))
			return
		}
	}
	t.Fatal("Chess Club missing from default seed")
}

func TestLoadSeed(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)
	assert.Equal(t, DefaultActivities(), seed)

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, catalog.Save(ToCatalog(testSeed(), time.Now()), path))

	seed, err = LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, testSeed(), seed)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestActivity_SpotsLeft(t *testing.T) {
	a := Activity{MaxParticipants: 2, Participants: []string{"a", "b", "c"}}
	assert.Equal(t, 0, a.SpotsLeft())
	a.Participants = a.Participants[:1]
	assert.Equal(t, 1, a.SpotsLeft())
}
