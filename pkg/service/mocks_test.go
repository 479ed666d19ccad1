package service

import (
	"context"
	"io"
	"net/http"
	"sort"

	"github.com/pkg/errors"

	"github.com/yuaoi107/yuyi/pkg/model"
)

// fakeRepo is an in-memory repository used across the service tests.
type fakeRepo struct {
	users    map[int64]*model.User
	podcasts map[int64]*model.Podcast
	episodes map[int64]*model.Episode
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[int64]*model.User),
		podcasts: make(map[int64]*model.Podcast),
		episodes: make(map[int64]*model.Episode),
	}
}

func (r *fakeRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) CreateUser(_ context.Context, user *model.User) error {
	user.ID = r.id()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeRepo) GetUser(_ context.Context, id int64) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeRepo) ListUsers(_ context.Context, offset, limit int) ([]*model.User, error) {
	var list []*model.User
	for _, user := range r.users {
		copied := *user
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return paginate(list, offset, limit), nil
}

func (r *fakeRepo) UpdateUser(_ context.Context, user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return model.ErrNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeRepo) DeleteUser(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeRepo) CreatePodcast(_ context.Context, podcast *model.Podcast) error {
	podcast.ID = r.id()
	copied := *podcast
	r.podcasts[podcast.ID] = &copied
	return nil
}

func (r *fakeRepo) GetPodcast(_ context.Context, id int64) (*model.Podcast, error) {
	podcast, ok := r.podcasts[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *podcast
	return &copied, nil
}

func (r *fakeRepo) GetPodcastDetails(ctx context.Context, id int64) (*model.Podcast, error) {
	podcast, err := r.GetPodcast(ctx, id)
	if err != nil {
		return nil, err
	}
	podcast.Author, _ = r.GetUser(ctx, podcast.AuthorID)
	podcast.Episodes, _ = r.ListEpisodes(ctx, id, 0, 0)
	return podcast, nil
}

func (r *fakeRepo) GetPodcastByTitle(_ context.Context, title string) (*model.Podcast, error) {
	for _, podcast := range r.podcasts {
		if podcast.Title == title {
			copied := *podcast
			return &copied, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeRepo) ListPodcasts(_ context.Context, authorID int64, offset, limit int) ([]*model.Podcast, error) {
	var list []*model.Podcast
	for _, podcast := range r.podcasts {
		if authorID != 0 && podcast.AuthorID != authorID {
			continue
		}
		copied := *podcast
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return paginate(list, offset, limit), nil
}

func (r *fakeRepo) UpdatePodcast(_ context.Context, podcast *model.Podcast) error {
	if _, ok := r.podcasts[podcast.ID]; !ok {
		return model.ErrNotFound
	}
	copied := *podcast
	r.podcasts[podcast.ID] = &copied
	return nil
}

func (r *fakeRepo) DeletePodcast(_ context.Context, id int64) error {
	if _, ok := r.podcasts[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.podcasts, id)
	return nil
}

func (r *fakeRepo) CreateEpisode(_ context.Context, episode *model.Episode) error {
	episode.ID = r.id()
	copied := *episode
	r.episodes[episode.ID] = &copied
	return nil
}

func (r *fakeRepo) GetEpisode(_ context.Context, id int64) (*model.Episode, error) {
	episode, ok := r.episodes[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *episode
	return &copied, nil
}

func (r *fakeRepo) GetEpisodeByTitle(_ context.Context, podcastID int64, title string) (*model.Episode, error) {
	for _, episode := range r.episodes {
		if episode.PodcastID == podcastID && episode.Title == title {
			copied := *episode
			return &copied, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeRepo) ListEpisodes(_ context.Context, podcastID int64, offset, limit int) ([]*model.Episode, error) {
	var list []*model.Episode
	for _, episode := range r.episodes {
		if episode.PodcastID != podcastID {
			continue
		}
		copied := *episode
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return paginate(list, offset, limit), nil
}

func (r *fakeRepo) UpdateEpisode(_ context.Context, episode *model.Episode) error {
	if _, ok := r.episodes[episode.ID]; !ok {
		return model.ErrNotFound
	}
	copied := *episode
	r.episodes[episode.ID] = &copied
	return nil
}

func (r *fakeRepo) DeleteEpisode(_ context.Context, id int64) error {
	if _, ok := r.episodes[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.episodes, id)
	return nil
}

func paginate[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// fakeStorage keeps uploaded blobs in memory.
type fakeStorage struct {
	files map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte)}
}

func (s *fakeStorage) Open(name string) (http.File, error) {
	if _, ok := s.files[name]; !ok {
		return nil, errors.New("no such key")
	}
	return nil, nil
}

func (s *fakeStorage) Create(_ context.Context, key string, reader io.Reader) (int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, err
	}
	s.files[key] = data
	return int64(len(data)), nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	delete(s.files, key)
	return nil
}

// fakeSync records which podcasts were synchronized.
type fakeSync struct {
	synced []int64
}

func (s *fakeSync) Sync(_ context.Context, podcast *model.Podcast) error {
	s.synced = append(s.synced, podcast.ID)
	return nil
}
