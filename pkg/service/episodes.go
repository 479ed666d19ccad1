package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/yuaoi107/yuyi/pkg/fs"
	"github.com/yuaoi107/yuyi/pkg/model"
)

// EpisodeService manages episodes and their audio/cover assets.
type EpisodeService struct {
	repo    repository
	storage fs.Storage
	sync    synchronizer
}

func NewEpisodeService(repo repository, storage fs.Storage, sync synchronizer) *EpisodeService {
	return &EpisodeService{
		repo:    repo,
		storage: storage,
		sync:    sync,
	}
}

func (s *EpisodeService) Create(ctx context.Context, login *model.User, podcastID int64, req *model.EpisodeCreate) (*model.Episode, error) {
	podcast, err := s.repo.GetPodcast(ctx, podcastID)
	if err != nil {
		return nil, err
	}

	if !canModify(login, podcast.AuthorID) {
		return nil, model.ErrPermissionDenied
	}

	_, err = s.repo.GetEpisodeByTitle(ctx, podcastID, req.Title)
	if err == nil {
		return nil, model.ErrAlreadyExists
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	episode := &model.Episode{
		PodcastID:   podcastID,
		Title:       req.Title,
		Description: req.Description,
		GUID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		PubDate:     now,
		Duration:    req.Duration,
		Explicit:    req.Explicit,
		Link:        req.Link,
		CreatedAt:   now,
	}

	if err := s.repo.CreateEpisode(ctx, episode); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"podcast_id": podcastID, "episode_id": episode.ID}).Info("created episode")

	if err := syncPodcast(ctx, s.repo, s.sync, podcastID); err != nil {
		return nil, err
	}

	return episode, nil
}

func (s *EpisodeService) Get(ctx context.Context, id int64) (*model.Episode, error) {
	return s.repo.GetEpisode(ctx, id)
}

func (s *EpisodeService) List(ctx context.Context, podcastID int64, offset, limit int) ([]*model.Episode, error) {
	if _, err := s.repo.GetPodcast(ctx, podcastID); err != nil {
		return nil, err
	}

	return s.repo.ListEpisodes(ctx, podcastID, offset, limit)
}

func (s *EpisodeService) Update(ctx context.Context, login *model.User, id int64, req *model.EpisodeUpdate) (*model.Episode, error) {
	episode, podcast, err := s.episodeWithPodcast(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canModify(login, podcast.AuthorID) {
		return nil, model.ErrPermissionDenied
	}

	if req.Title != nil && *req.Title != episode.Title {
		_, err := s.repo.GetEpisodeByTitle(ctx, episode.PodcastID, *req.Title)
		if err == nil {
			return nil, model.ErrAlreadyExists
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		episode.Title = *req.Title
	}
	if req.Description != nil {
		episode.Description = *req.Description
	}
	if req.Duration != nil {
		episode.Duration = *req.Duration
	}
	if req.Explicit != nil {
		episode.Explicit = *req.Explicit
	}
	if req.Link != nil {
		episode.Link = *req.Link
	}

	if err := s.repo.UpdateEpisode(ctx, episode); err != nil {
		return nil, err
	}

	if err := syncPodcast(ctx, s.repo, s.sync, episode.PodcastID); err != nil {
		return nil, err
	}

	return episode, nil
}

func (s *EpisodeService) Delete(ctx context.Context, login *model.User, id int64) error {
	episode, podcast, err := s.episodeWithPodcast(ctx, id)
	if err != nil {
		return err
	}

	if !canModify(login, podcast.AuthorID) {
		return model.ErrPermissionDenied
	}

	if episode.AudioKey != "" {
		if err := s.storage.Delete(ctx, episode.AudioKey); err != nil {
			return errors.Wrap(err, "failed to delete audio")
		}
	}
	if episode.CoverKey != "" {
		if err := s.storage.Delete(ctx, episode.CoverKey); err != nil {
			return errors.Wrap(err, "failed to delete cover")
		}
	}

	if err := s.repo.DeleteEpisode(ctx, id); err != nil {
		return err
	}

	log.WithFields(log.Fields{"podcast_id": episode.PodcastID, "episode_id": id}).Info("deleted episode")

	return syncPodcast(ctx, s.repo, s.sync, episode.PodcastID)
}

func (s *EpisodeService) Cover(ctx context.Context, id int64) (http.File, error) {
	episode, err := s.repo.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}

	if episode.CoverKey == "" {
		return nil, model.ErrNotFound
	}

	return s.storage.Open(episode.CoverKey)
}

func (s *EpisodeService) UpdateCover(ctx context.Context, login *model.User, id int64, filename string, reader io.Reader) error {
	episode, podcast, err := s.episodeWithPodcast(ctx, id)
	if err != nil {
		return err
	}

	if !canModify(login, podcast.AuthorID) {
		return model.ErrPermissionDenied
	}

	if episode.CoverKey != "" {
		if err := s.storage.Delete(ctx, episode.CoverKey); err != nil {
			return errors.Wrap(err, "failed to delete previous cover")
		}
	}

	key := episodeCoverKey(podcast.AuthorID, podcast.ID, episode.ID, filename)
	if _, err := s.storage.Create(ctx, key, reader); err != nil {
		return errors.Wrap(err, "failed to store cover")
	}

	episode.CoverKey = key
	if err := s.repo.UpdateEpisode(ctx, episode); err != nil {
		return err
	}

	return syncPodcast(ctx, s.repo, s.sync, episode.PodcastID)
}

func (s *EpisodeService) Audio(ctx context.Context, id int64) (http.File, error) {
	episode, err := s.repo.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}

	if episode.AudioKey == "" {
		return nil, model.ErrNotFound
	}

	return s.storage.Open(episode.AudioKey)
}

// UpdateAudio replaces the episode's enclosure. The stored byte count
// and the upload's media type become the enclosure length and type in
// the feed.
func (s *EpisodeService) UpdateAudio(ctx context.Context, login *model.User, id int64, filename, contentType string, reader io.Reader) error {
	episode, podcast, err := s.episodeWithPodcast(ctx, id)
	if err != nil {
		return err
	}

	if !canModify(login, podcast.AuthorID) {
		return model.ErrPermissionDenied
	}

	if episode.AudioKey != "" {
		if err := s.storage.Delete(ctx, episode.AudioKey); err != nil {
			return errors.Wrap(err, "failed to delete previous audio")
		}
	}

	key := episodeAudioKey(podcast.AuthorID, podcast.ID, episode.ID, filename)
	written, err := s.storage.Create(ctx, key, reader)
	if err != nil {
		return errors.Wrap(err, "failed to store audio")
	}

	episode.AudioKey = key
	episode.AudioLength = written
	episode.AudioType = contentType

	if err := s.repo.UpdateEpisode(ctx, episode); err != nil {
		return err
	}

	return syncPodcast(ctx, s.repo, s.sync, episode.PodcastID)
}

func (s *EpisodeService) episodeWithPodcast(ctx context.Context, id int64) (*model.Episode, *model.Podcast, error) {
	episode, err := s.repo.GetEpisode(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	podcast, err := s.repo.GetPodcast(ctx, episode.PodcastID)
	if err != nil {
		return nil, nil, err
	}

	return episode, podcast, nil
}
