package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuaoi107/yuyi/pkg/model"
)

func TestEpisodeCreate(t *testing.T) {
	_, _, sync, users, podcasts, episodes := newTestServices()
	ctx := context.Background()

	user := createTestUser(t, users, "alice")
	podcast := createTestPodcast(t, podcasts, user, "Show")

	episode, err := episodes.Create(ctx, user, podcast.ID, &model.EpisodeCreate{
		Title:    "E1",
		Duration: 120,
	})
	require.NoError(t, err)

	assert.NotZero(t, episode.ID)
	assert.Equal(t, podcast.ID, episode.PodcastID)
	assert.Len(t, episode.GUID, 32)
	assert.NotContains(t, episode.GUID, "-")
	assert.False(t, episode.PubDate.IsZero())
	assert.Equal(t, 120, episode.Duration)

	assert.Equal(t, []int64{podcast.ID}, sync.synced)
}

func TestEpisodeCreateForbidden(t *testing.T) {
	_, _, _, users, podcasts, episodes := newTestServices()
	ctx := context.Background()

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")
	podcast := createTestPodcast(t, podcasts, alice, "Show")

	_, err := episodes.Create(ctx, bob, podcast.ID, &model.EpisodeCreate{Title: "E1"})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestEpisodeCreateDuplicateTitle(t *testing.T) {
	_, _, _, users, podcasts, episodes := newTestServices()
	ctx := context.Background()

	user := createTestUser(t, users, "alice")
	first := createTestPodcast(t, podcasts, user, "First")
	second := createTestPodcast(t, podcasts, user, "Second")

	_, err := episodes.Create(ctx, user, first.ID, &model.EpisodeCreate{Title: "E1"})
	require.NoError(t, err)

	_, err = episodes.Create(ctx, user, first.ID, &model.EpisodeCreate{Title: "E1"})
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	// uniqueness is scoped to the podcast
	_, err = episodes.Create(ctx, user, second.ID, &model.EpisodeCreate{Title: "E1"})
	assert.NoError(t, err)
}

func TestEpisodeUpdate(t *testing.T) {
	_, _, sync, users, podcasts, episodes := newTestServices()
	ctx := context.Background()

	user := createTestUser(t, users, "alice")
	podcast := createTestPodcast(t, podcasts, user, "Show")

	episode, err := episodes.Create(ctx, user, podcast.ID, &model.EpisodeCreate{Title: "E1"})
	require.NoError(t, err)

	guid, pubDate := episode.GUID, episode.PubDate

	title := "E1 remastered"
	duration := 300
	updated, err := episodes.Update(ctx, user, episode.ID, &model.EpisodeUpdate{
		Title:    &title,
		Duration: &duration,
	})
	require.NoError(t, err)

	assert.Equal(t, title, updated.Title)
	assert.Equal(t, duration, updated.Duration)

	// identity fields never change after creation
	assert.Equal(t, guid, updated.GUID)
	assert.Equal(t, pubDate, updated.PubDate)

	assert.Equal(t, []int64{podcast.ID, podcast.ID}, sync.synced)
}

func TestEpisodeUpdateForbidden(t *testing.T) {
	_, _, _, users, podcasts, episodes := newTestServices()
	ctx := context.Background()

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")
	podcast := createTestPodcast(t, podcasts, alice, "Show")

	episode, err := episodes.Create(ctx, alice, podcast.ID, &model.EpisodeCreate{Title: "E1"})
	require.NoError(t, err)

	title := "hijacked"
	_, err = episodes.Update(ctx, bob, episode.ID, &model.EpisodeUpdate{Title: &title})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestEpisodeDelete(t *testing.T) {
	repo, storage, sync, users, podcasts, episodes := newTestServices()
	ctx := context.Background()

	user := createTestUser(t, users, "alice")
	podcast := createTestPodcast(t, podcasts, user, "Show")

	episode, err := episodes.Create(ctx, user, podcast.ID, &model.EpisodeCreate{Title: "E1"})
	require.NoError(t, err)
	require.NoError(t, episodes.UpdateAudio(ctx, user, episode.ID, "e1.mp3", "audio/mpeg", strings.NewReader("audio")))
	require.NoError(t, episodes.UpdateCover(ctx, user, episode.ID, "e1.png", strings.NewReader("png")))

	require.NoError(t, episodes.Delete(ctx, user, episode.ID))

	_, err = repo.GetEpisode(ctx, episode.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, storage.files)

	// create, audio, cover, delete each resynchronize the feed
	assert.Equal(t, []int64{podcast.ID, podcast.ID, podcast.ID, podcast.ID}, sync.synced)
}

func TestEpisodeUpdateAudio(t *testing.T) {
	repo, storage, _, users, podcasts, episodes := newTestServices()
	ctx := context.Background()

	user := createTestUser(t, users, "alice")
	podcast := createTestPodcast(t, podcasts, user, "Show")

	episode, err := episodes.Create(ctx, user, podcast.ID, &model.EpisodeCreate{Title: "E1"})
	require.NoError(t, err)

	_, err = episodes.Audio(ctx, episode.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, episodes.UpdateAudio(ctx, user, episode.ID, "e1.mp3", "audio/mpeg", strings.NewReader("audio bytes")))

	stored, err := repo.GetEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.EqualValues(t, len("audio bytes"), stored.AudioLength)
	assert.Equal(t, "audio/mpeg", stored.AudioType)
	assert.True(t, strings.HasSuffix(stored.AudioKey, ".mp3"))
	assert.Contains(t, stored.AudioKey, "enclosure")

	// replacing the enclosure drops the old blob
	require.NoError(t, episodes.UpdateAudio(ctx, user, episode.ID, "e1.ogg", "audio/ogg", strings.NewReader("ogg")))
	require.Len(t, storage.files, 1)

	stored, err = repo.GetEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stored.AudioLength)
	assert.Equal(t, "audio/ogg", stored.AudioType)
}

func TestEpisodeListUnknownPodcast(t *testing.T) {
	_, _, _, _, _, episodes := newTestServices()

	_, err := episodes.List(context.Background(), 42, 0, 0)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
