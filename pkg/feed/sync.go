package feed

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/yuaoi107/yuyi/pkg/fs"
	"github.com/yuaoi107/yuyi/pkg/model"
)

type repository interface {
	UpdatePodcastFeedKey(ctx context.Context, podcastID int64, feedKey string) error
}

// Synchronizer keeps the stored feed document and the podcast's FeedKey
// consistent with current content. It is the single entry point to call
// after any content-affecting mutation, and the only component that
// writes or deletes feed blobs.
type Synchronizer struct {
	repo    repository
	storage fs.Storage
	baseURL string

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewSynchronizer(repo repository, storage fs.Storage, baseURL string) *Synchronizer {
	return &Synchronizer{
		repo:    repo,
		storage: storage,
		baseURL: baseURL,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Key returns the asset store key for a podcast's feed document.
func Key(authorID, podcastID int64) string {
	return fmt.Sprintf("users/%d/podcasts/%d/rss", authorID, podcastID)
}

// Sync regenerates the feed for a podcast. The podcast must have its
// episodes and author eagerly loaded.
//
// Any previously stored document is deleted first, and FeedKey is
// persisted empty before the rebuild, so a partial failure can never
// leave the key pointing at a deleted blob. The new key is persisted
// only after the new document is safely stored.
func (s *Synchronizer) Sync(ctx context.Context, podcast *model.Podcast) error {
	lock := s.podcastLock(podcast.ID)
	lock.Lock()
	defer lock.Unlock()

	logger := log.WithField("podcast_id", podcast.ID)

	if podcast.FeedKey != "" {
		if err := s.storage.Delete(ctx, podcast.FeedKey); err != nil {
			return errors.Wrapf(err, "failed to delete feed %q", podcast.FeedKey)
		}

		podcast.FeedKey = ""
		if err := s.repo.UpdatePodcastFeedKey(ctx, podcast.ID, ""); err != nil {
			return errors.Wrap(err, "failed to clear feed key")
		}
	}

	doc := Build(podcast, s.baseURL)
	if doc == nil {
		logger.Debug("podcast is not ready to publish")
		return nil
	}

	data, err := doc.Bytes()
	if err != nil {
		return err
	}

	key := Key(podcast.AuthorID, podcast.ID)
	if _, err := s.storage.Create(ctx, key, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "failed to store feed %q", key)
	}

	if err := s.repo.UpdatePodcastFeedKey(ctx, podcast.ID, key); err != nil {
		return errors.Wrap(err, "failed to save feed key")
	}

	podcast.FeedKey = key
	logger.Debugf("published feed %q with %d items", key, len(doc.Channel.Items))
	return nil
}

// podcastLock serializes synchronization per podcast so the delete/store
// pair of two interleaved syncs cannot race. Locks are kept for the
// process lifetime; the map is bounded by the number of podcasts.
func (s *Synchronizer) podcastLock(podcastID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[podcastID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[podcastID] = lock
	}

	return lock
}
