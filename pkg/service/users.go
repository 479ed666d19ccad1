package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/yuaoi107/yuyi/pkg/fs"
	"github.com/yuaoi107/yuyi/pkg/model"
)

// UserService manages accounts and their avatars.
type UserService struct {
	repo     repository
	storage  fs.Storage
	podcasts *PodcastService
}

func NewUserService(repo repository, storage fs.Storage, podcasts *PodcastService) *UserService {
	return &UserService{
		repo:     repo,
		storage:  storage,
		podcasts: podcasts,
	}
}

func (s *UserService) Create(ctx context.Context, req *model.UserCreate) (*model.User, error) {
	_, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err == nil {
		return nil, model.ErrAlreadyExists
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &model.User{
		Username:       req.Username,
		Nickname:       req.Nickname,
		Email:          req.Email,
		Description:    req.Description,
		HashedPassword: string(hash),
		Role:           model.RoleUser,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.WithField("user_id", user.ID).Info("created user")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	return s.repo.ListUsers(ctx, offset, limit)
}

func (s *UserService) Update(ctx context.Context, login *model.User, id int64, req *model.UserUpdate) (*model.User, error) {
	if !canModify(login, id) {
		return nil, model.ErrPermissionDenied
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Nickname != nil {
		user.Nickname = *req.Nickname
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Description != nil {
		user.Description = *req.Description
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash password")
		}
		user.HashedPassword = string(hash)
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes the account together with all podcasts it owns and
// every asset those podcasts reference.
func (s *UserService) Delete(ctx context.Context, login *model.User, id int64) error {
	if !canModify(login, id) {
		return model.ErrPermissionDenied
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}

	podcasts, err := s.repo.ListPodcasts(ctx, id, 0, 0)
	if err != nil {
		return err
	}

	for _, podcast := range podcasts {
		if err := s.podcasts.purge(ctx, podcast); err != nil {
			return err
		}
	}

	if user.AvatarKey != "" {
		if err := s.storage.Delete(ctx, user.AvatarKey); err != nil {
			return errors.Wrap(err, "failed to delete avatar")
		}
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	log.WithField("user_id", id).Info("deleted user")
	return nil
}

func (s *UserService) Avatar(ctx context.Context, id int64) (http.File, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.AvatarKey == "" {
		return nil, model.ErrNotFound
	}

	return s.storage.Open(user.AvatarKey)
}

func (s *UserService) UpdateAvatar(ctx context.Context, login *model.User, id int64, filename string, reader io.Reader) error {
	if !canModify(login, id) {
		return model.ErrPermissionDenied
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if user.AvatarKey != "" {
		if err := s.storage.Delete(ctx, user.AvatarKey); err != nil {
			return errors.Wrap(err, "failed to delete previous avatar")
		}
	}

	key := avatarKey(id, filename)
	if _, err := s.storage.Create(ctx, key, reader); err != nil {
		return errors.Wrap(err, "failed to store avatar")
	}

	user.AvatarKey = key
	return s.repo.UpdateUser(ctx, user)
}
