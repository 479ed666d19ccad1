package storage

import (
	"context"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"

	"github.com/yuaoi107/yuyi/pkg/model"
)

// Postgres is the content repository for users, podcasts and episodes.
type Postgres struct {
	db *pg.DB
}

func NewPostgres(ctx context.Context, connectionURL string) (*Postgres, error) {
	opts, err := pg.ParseURL(connectionURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database URL")
	}

	db := pg.Connect(opts)

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to check database connectivity")
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// CreateSchema creates missing tables. Existing tables are left untouched.
func (p *Postgres) CreateSchema(ctx context.Context) error {
	models := []interface{}{
		(*model.User)(nil),
		(*model.Podcast)(nil),
		(*model.Episode)(nil),
	}

	for _, m := range models {
		err := p.db.ModelContext(ctx, m).CreateTable(&orm.CreateTableOptions{
			IfNotExists:   true,
			FKConstraints: true,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create table")
		}
	}

	return nil
}

// Users

func (p *Postgres) CreateUser(ctx context.Context, user *model.User) error {
	if _, err := p.db.ModelContext(ctx, user).Insert(); err != nil {
		return errors.Wrap(err, "failed to save user")
	}
	return nil
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{ID: id}
	if err := p.db.ModelContext(ctx, user).WherePK().Select(); err != nil {
		return nil, wrapNotFound(err, "failed to query user")
	}
	return user, nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	err := p.db.ModelContext(ctx, user).Where("username = ?", username).Select()
	if err != nil {
		return nil, wrapNotFound(err, "failed to query user by name")
	}
	return user, nil
}

func (p *Postgres) ListUsers(ctx context.Context, offset, limit int) ([]*model.User, error) {
	var users []*model.User
	q := p.db.ModelContext(ctx, &users).Order("id ASC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Select(); err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (p *Postgres) UpdateUser(ctx context.Context, user *model.User) error {
	res, err := p.db.ModelContext(ctx, user).WherePK().Update()
	if err != nil {
		return errors.Wrap(err, "failed to update user")
	}
	if res.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteUser(ctx context.Context, id int64) error {
	res, err := p.db.ModelContext(ctx, &model.User{ID: id}).WherePK().Delete()
	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	if res.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Podcasts

func (p *Postgres) CreatePodcast(ctx context.Context, podcast *model.Podcast) error {
	if _, err := p.db.ModelContext(ctx, podcast).Insert(); err != nil {
		return errors.Wrap(err, "failed to save podcast")
	}
	return nil
}

func (p *Postgres) GetPodcast(ctx context.Context, id int64) (*model.Podcast, error) {
	podcast := &model.Podcast{ID: id}
	if err := p.db.ModelContext(ctx, podcast).WherePK().Select(); err != nil {
		return nil, wrapNotFound(err, "failed to query podcast")
	}
	return podcast, nil
}

// GetPodcastDetails loads a podcast together with its author and its
// episodes in stable insertion order, as the feed builder requires.
func (p *Postgres) GetPodcastDetails(ctx context.Context, id int64) (*model.Podcast, error) {
	podcast := &model.Podcast{}
	err := p.db.ModelContext(ctx, podcast).
		Relation("Author").
		Relation("Episodes", func(q *orm.Query) (*orm.Query, error) {
			return q.Order("id ASC"), nil
		}).
		Where("podcast.id = ?", id).
		Select()
	if err != nil {
		return nil, wrapNotFound(err, "failed to query podcast details")
	}
	return podcast, nil
}

func (p *Postgres) GetPodcastByTitle(ctx context.Context, title string) (*model.Podcast, error) {
	podcast := &model.Podcast{}
	err := p.db.ModelContext(ctx, podcast).Where("title = ?", title).Select()
	if err != nil {
		return nil, wrapNotFound(err, "failed to query podcast by title")
	}
	return podcast, nil
}

func (p *Postgres) ListPodcasts(ctx context.Context, authorID int64, offset, limit int) ([]*model.Podcast, error) {
	var podcasts []*model.Podcast
	q := p.db.ModelContext(ctx, &podcasts).Order("id ASC").Offset(offset)
	if authorID != 0 {
		q = q.Where("author_id = ?", authorID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Select(); err != nil {
		return nil, errors.Wrap(err, "failed to list podcasts")
	}
	return podcasts, nil
}

func (p *Postgres) UpdatePodcast(ctx context.Context, podcast *model.Podcast) error {
	res, err := p.db.ModelContext(ctx, podcast).WherePK().Update()
	if err != nil {
		return errors.Wrap(err, "failed to update podcast")
	}
	if res.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdatePodcastFeedKey(ctx context.Context, podcastID int64, feedKey string) error {
	_, err := p.db.ModelContext(ctx, (*model.Podcast)(nil)).
		Set("feed_key = ?", feedKey).
		Where("id = ?", podcastID).
		Update()
	if err != nil {
		return errors.Wrapf(err, "failed to update feed key for podcast %d", podcastID)
	}
	return nil
}

func (p *Postgres) DeletePodcast(ctx context.Context, id int64) error {
	res, err := p.db.ModelContext(ctx, &model.Podcast{ID: id}).WherePK().Delete()
	if err != nil {
		return errors.Wrap(err, "failed to delete podcast")
	}
	if res.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Episodes

func (p *Postgres) CreateEpisode(ctx context.Context, episode *model.Episode) error {
	if _, err := p.db.ModelContext(ctx, episode).Insert(); err != nil {
		return errors.Wrap(err, "failed to save episode")
	}
	return nil
}

func (p *Postgres) GetEpisode(ctx context.Context, id int64) (*model.Episode, error) {
	episode := &model.Episode{ID: id}
	if err := p.db.ModelContext(ctx, episode).WherePK().Select(); err != nil {
		return nil, wrapNotFound(err, "failed to query episode")
	}
	return episode, nil
}

func (p *Postgres) GetEpisodeByTitle(ctx context.Context, podcastID int64, title string) (*model.Episode, error) {
	episode := &model.Episode{}
	err := p.db.ModelContext(ctx, episode).
		Where("podcast_id = ?", podcastID).
		Where("title = ?", title).
		Select()
	if err != nil {
		return nil, wrapNotFound(err, "failed to query episode by title")
	}
	return episode, nil
}

func (p *Postgres) ListEpisodes(ctx context.Context, podcastID int64, offset, limit int) ([]*model.Episode, error) {
	var episodes []*model.Episode
	q := p.db.ModelContext(ctx, &episodes).Order("id ASC").Offset(offset)
	if podcastID != 0 {
		q = q.Where("podcast_id = ?", podcastID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Select(); err != nil {
		return nil, errors.Wrap(err, "failed to list episodes")
	}
	return episodes, nil
}

func (p *Postgres) UpdateEpisode(ctx context.Context, episode *model.Episode) error {
	res, err := p.db.ModelContext(ctx, episode).WherePK().Update()
	if err != nil {
		return errors.Wrap(err, "failed to update episode")
	}
	if res.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteEpisode(ctx context.Context, id int64) error {
	res, err := p.db.ModelContext(ctx, &model.Episode{ID: id}).WherePK().Delete()
	if err != nil {
		return errors.Wrap(err, "failed to delete episode")
	}
	if res.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func wrapNotFound(err error, msg string) error {
	if err == pg.ErrNoRows {
		return model.ErrNotFound
	}
	return errors.Wrap(err, msg)
}
