package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/yuaoi107/yuyi/pkg/fs"
	"github.com/yuaoi107/yuyi/pkg/model"
)

// PodcastService manages podcasts, their covers and feed retrieval.
// Every mutation that can change feed content ends with a feed sync.
type PodcastService struct {
	repo      repository
	storage   fs.Storage
	sync      synchronizer
	generator string
}

func NewPodcastService(repo repository, storage fs.Storage, sync synchronizer, generator string) *PodcastService {
	return &PodcastService{
		repo:      repo,
		storage:   storage,
		sync:      sync,
		generator: generator,
	}
}

func (s *PodcastService) Create(ctx context.Context, login *model.User, req *model.PodcastCreate) (*model.Podcast, error) {
	if login == nil {
		return nil, model.ErrPermissionDenied
	}

	_, err := s.repo.GetPodcastByTitle(ctx, req.Title)
	if err == nil {
		return nil, model.ErrAlreadyExists
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	podcast := &model.Podcast{
		AuthorID:    login.ID,
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Explicit:    req.Explicit,
		Copyright:   req.Copyright,
		Link:        req.Link,
		Generator:   s.generator,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreatePodcast(ctx, podcast); err != nil {
		return nil, err
	}

	log.WithField("podcast_id", podcast.ID).Info("created podcast")
	return podcast, nil
}

func (s *PodcastService) Get(ctx context.Context, id int64) (*model.Podcast, error) {
	return s.repo.GetPodcastDetails(ctx, id)
}

func (s *PodcastService) List(ctx context.Context, authorID int64, offset, limit int) ([]*model.Podcast, error) {
	return s.repo.ListPodcasts(ctx, authorID, offset, limit)
}

func (s *PodcastService) Update(ctx context.Context, login *model.User, id int64, req *model.PodcastUpdate) (*model.Podcast, error) {
	podcast, err := s.repo.GetPodcast(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canModify(login, podcast.AuthorID) {
		return nil, model.ErrPermissionDenied
	}

	if req.Title != nil && *req.Title != podcast.Title {
		_, err := s.repo.GetPodcastByTitle(ctx, *req.Title)
		if err == nil {
			return nil, model.ErrAlreadyExists
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		podcast.Title = *req.Title
	}
	if req.Description != nil {
		podcast.Description = *req.Description
	}
	if req.Language != nil {
		podcast.Language = *req.Language
	}
	if req.Category != nil {
		podcast.Category = *req.Category
	}
	if req.Subcategory != nil {
		podcast.Subcategory = *req.Subcategory
	}
	if req.Explicit != nil {
		podcast.Explicit = *req.Explicit
	}
	if req.Copyright != nil {
		podcast.Copyright = *req.Copyright
	}
	if req.Link != nil {
		podcast.Link = *req.Link
	}

	if err := s.repo.UpdatePodcast(ctx, podcast); err != nil {
		return nil, err
	}

	if err := syncPodcast(ctx, s.repo, s.sync, id); err != nil {
		return nil, err
	}

	return podcast, nil
}

func (s *PodcastService) Delete(ctx context.Context, login *model.User, id int64) error {
	podcast, err := s.repo.GetPodcast(ctx, id)
	if err != nil {
		return err
	}

	if !canModify(login, podcast.AuthorID) {
		return model.ErrPermissionDenied
	}

	return s.purge(ctx, podcast)
}

// purge removes the podcast row, its episodes and every stored blob
// they reference. The feed blob goes too, no sync needed afterwards.
func (s *PodcastService) purge(ctx context.Context, podcast *model.Podcast) error {
	episodes, err := s.repo.ListEpisodes(ctx, podcast.ID, 0, 0)
	if err != nil {
		return err
	}

	for _, episode := range episodes {
		if err := s.deleteEpisodeAssets(ctx, episode); err != nil {
			return err
		}
		if err := s.repo.DeleteEpisode(ctx, episode.ID); err != nil {
			return err
		}
	}

	if podcast.CoverKey != "" {
		if err := s.storage.Delete(ctx, podcast.CoverKey); err != nil {
			return errors.Wrap(err, "failed to delete cover")
		}
	}

	if podcast.FeedKey != "" {
		if err := s.storage.Delete(ctx, podcast.FeedKey); err != nil {
			return errors.Wrap(err, "failed to delete feed")
		}
	}

	if err := s.repo.DeletePodcast(ctx, podcast.ID); err != nil {
		return err
	}

	log.WithField("podcast_id", podcast.ID).Info("deleted podcast")
	return nil
}

func (s *PodcastService) deleteEpisodeAssets(ctx context.Context, episode *model.Episode) error {
	if episode.AudioKey != "" {
		if err := s.storage.Delete(ctx, episode.AudioKey); err != nil {
			return errors.Wrap(err, "failed to delete audio")
		}
	}
	if episode.CoverKey != "" {
		if err := s.storage.Delete(ctx, episode.CoverKey); err != nil {
			return errors.Wrap(err, "failed to delete episode cover")
		}
	}
	return nil
}

func (s *PodcastService) Cover(ctx context.Context, id int64) (http.File, error) {
	podcast, err := s.repo.GetPodcast(ctx, id)
	if err != nil {
		return nil, err
	}

	if podcast.CoverKey == "" {
		return nil, model.ErrNotFound
	}

	return s.storage.Open(podcast.CoverKey)
}

func (s *PodcastService) UpdateCover(ctx context.Context, login *model.User, id int64, filename string, reader io.Reader) error {
	podcast, err := s.repo.GetPodcast(ctx, id)
	if err != nil {
		return err
	}

	if !canModify(login, podcast.AuthorID) {
		return model.ErrPermissionDenied
	}

	if podcast.CoverKey != "" {
		if err := s.storage.Delete(ctx, podcast.CoverKey); err != nil {
			return errors.Wrap(err, "failed to delete previous cover")
		}
	}

	key := podcastCoverKey(podcast.AuthorID, podcast.ID, filename)
	if _, err := s.storage.Create(ctx, key, reader); err != nil {
		return errors.Wrap(err, "failed to store cover")
	}

	podcast.CoverKey = key
	if err := s.repo.UpdatePodcast(ctx, podcast); err != nil {
		return err
	}

	return syncPodcast(ctx, s.repo, s.sync, id)
}

// Feed returns the stored feed document, or ErrFeedNotFound when the
// podcast currently has no publishable feed.
func (s *PodcastService) Feed(ctx context.Context, id int64) (http.File, error) {
	podcast, err := s.repo.GetPodcast(ctx, id)
	if err != nil {
		return nil, err
	}

	if podcast.FeedKey == "" {
		return nil, model.ErrFeedNotFound
	}

	return s.storage.Open(podcast.FeedKey)
}
