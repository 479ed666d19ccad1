package service

import (
	"context"

	"github.com/yuaoi107/yuyi/pkg/model"
)

// repository is the content repository contract consumed by the
// services. Satisfied by storage.Postgres.
type repository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreatePodcast(ctx context.Context, podcast *model.Podcast) error
	GetPodcast(ctx context.Context, id int64) (*model.Podcast, error)
	GetPodcastDetails(ctx context.Context, id int64) (*model.Podcast, error)
	GetPodcastByTitle(ctx context.Context, title string) (*model.Podcast, error)
	ListPodcasts(ctx context.Context, authorID int64, offset, limit int) ([]*model.Podcast, error)
	UpdatePodcast(ctx context.Context, podcast *model.Podcast) error
	DeletePodcast(ctx context.Context, id int64) error

	CreateEpisode(ctx context.Context, episode *model.Episode) error
	GetEpisode(ctx context.Context, id int64) (*model.Episode, error)
	GetEpisodeByTitle(ctx context.Context, podcastID int64, title string) (*model.Episode, error)
	ListEpisodes(ctx context.Context, podcastID int64, offset, limit int) ([]*model.Episode, error)
	UpdateEpisode(ctx context.Context, episode *model.Episode) error
	DeleteEpisode(ctx context.Context, id int64) error
}

// synchronizer regenerates a podcast's feed document. Satisfied by
// feed.Synchronizer.
type synchronizer interface {
	Sync(ctx context.Context, podcast *model.Podcast) error
}

// canModify reports whether the logged in user may mutate content owned
// by the given author.
func canModify(login *model.User, authorID int64) bool {
	return login != nil && (login.ID == authorID || login.Role == model.RoleAdmin)
}

// syncPodcast reloads the full podcast graph and regenerates its feed.
// Every content-affecting mutation must end up here.
func syncPodcast(ctx context.Context, repo repository, sync synchronizer, podcastID int64) error {
	podcast, err := repo.GetPodcastDetails(ctx, podcastID)
	if err != nil {
		return err
	}

	return sync.Sync(ctx, podcast)
}
