package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

func TestQueueStateRepository_LoadEmpty(t *testing.T) {
	repo := NewQueueStateRepository()

	snapshot, err := repo.LoadQueueState()
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestQueueStateRepository_SaveStoresCopy(t *testing.T) {
	repo := NewQueueStateRepository()

	items := []domain.Track{{ID: "a", Path: "/music/a.mp3"}, {ID: "b", Path: "/music/b.mp3"}}
	require.NoError(t, repo.SaveQueueState(domain.QueueSnapshot{Items: items, CurrentIndex: 1}))

	// Mutating the caller's slice must not leak into the stored snapshot
	items[0].ID = "changed"

	loaded, err := repo.LoadQueueState()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "a", loaded.Items[0].ID)
	assert.Equal(t, 1, loaded.CurrentIndex)
	assert.Equal(t, 1, repo.Saves())

	loaded.Items[1].ID = "changed"
	again, _ := repo.LoadQueueState()
	assert.Equal(t, "b", again.Items[1].ID)
}

func TestQueueStateRepository_SaveError(t *testing.T) {
	repo := NewQueueStateRepository()
	boom := errors.New("disk full")

	repo.SetSaveError(boom)
	err := repo.SaveQueueState(domain.QueueSnapshot{CurrentIndex: -1})
	assert.ErrorIs(t, err, boom)

	var repoErr *domain.RepositoryError
	assert.ErrorAs(t, err, &repoErr)
	assert.Equal(t, 0, repo.Saves())
}

func TestPlayCountRepository(t *testing.T) {
	repo := NewPlayCountRepository()

	count, err := repo.IncrementPlayCount("/music/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.IncrementPlayCount("/music/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = repo.IncrementPlayCount("")
	assert.ErrorIs(t, err, domain.ErrInvalidFilePath)

	count, err = repo.GetPlayCount("/music/missing.mp3")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, repo.SaveAll(map[string]int{"/music/b.mp3": 7}))
	all, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"/music/b.mp3": 7}, all)

	require.NoError(t, repo.SaveAll(nil))
	count, err = repo.IncrementPlayCount("/music/c.mp3")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPlaylistRepository(t *testing.T) {
	repo := NewPlaylistRepository()

	require.NoError(t, repo.SavePlaylist("Workout", []string{"/music/a.mp3", "/music/b.mp3"}))
	require.NoError(t, repo.SavePlaylist("Chill", []string{"/music/b.mp3"}))
	assert.Error(t, repo.SavePlaylist("", nil))

	names, err := repo.PlaylistNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Chill", "Workout"}, names)

	containing, err := repo.PlaylistsContaining("/music/b.mp3")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chill", "Workout"}, containing)

	require.NoError(t, repo.DeletePlaylist("Chill"))
	containing, err = repo.PlaylistsContaining("/music/b.mp3")
	require.NoError(t, err)
	assert.Equal(t, []string{"Workout"}, containing)

	containing, err = repo.PlaylistsContaining("/music/none.mp3")
	require.NoError(t, err)
	assert.Empty(t, containing)
}

func TestPreferencesRepository(t *testing.T) {
	repo := NewPreferencesRepository()

	mode, err := repo.LoadMode()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeNormal, mode)

	require.NoError(t, repo.SaveMode(domain.ModeStopAfter))
	mode, err = repo.LoadMode()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeStopAfter, mode)

	assert.ErrorIs(t, repo.SaveMode(domain.PlaybackMode(-1)), domain.ErrInvalidMode)
}
