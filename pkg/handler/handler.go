package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/yuaoi107/yuyi/pkg/model"
	"github.com/yuaoi107/yuyi/pkg/service"
)

type userService interface {
	Create(ctx context.Context, req *model.UserCreate) (*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	Update(ctx context.Context, login *model.User, id int64, req *model.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, login *model.User, id int64) error
	Avatar(ctx context.Context, id int64) (http.File, error)
	UpdateAvatar(ctx context.Context, login *model.User, id int64, filename string, reader io.Reader) error
}

type podcastService interface {
	Create(ctx context.Context, login *model.User, req *model.PodcastCreate) (*model.Podcast, error)
	Get(ctx context.Context, id int64) (*model.Podcast, error)
	List(ctx context.Context, authorID int64, offset, limit int) ([]*model.Podcast, error)
	Update(ctx context.Context, login *model.User, id int64, req *model.PodcastUpdate) (*model.Podcast, error)
	Delete(ctx context.Context, login *model.User, id int64) error
	Cover(ctx context.Context, id int64) (http.File, error)
	UpdateCover(ctx context.Context, login *model.User, id int64, filename string, reader io.Reader) error
	Feed(ctx context.Context, id int64) (http.File, error)
}

type episodeService interface {
	Create(ctx context.Context, login *model.User, podcastID int64, req *model.EpisodeCreate) (*model.Episode, error)
	Get(ctx context.Context, id int64) (*model.Episode, error)
	List(ctx context.Context, podcastID int64, offset, limit int) ([]*model.Episode, error)
	Update(ctx context.Context, login *model.User, id int64, req *model.EpisodeUpdate) (*model.Episode, error)
	Delete(ctx context.Context, login *model.User, id int64) error
	Cover(ctx context.Context, id int64) (http.File, error)
	UpdateCover(ctx context.Context, login *model.User, id int64, filename string, reader io.Reader) error
	Audio(ctx context.Context, id int64) (http.File, error)
	UpdateAudio(ctx context.Context, login *model.User, id int64, filename, contentType string, reader io.Reader) error
}

type authService interface {
	Login(ctx context.Context, username, password string) (string, error)
	ParseToken(tokenStr string) (*service.Claims, error)
}

type handler struct {
	users    userService
	podcasts podcastService
	episodes episodeService
	auth     authService
}

// New assembles the HTTP routing table.
func New(users userService, podcasts podcastService, episodes episodeService, auth authService) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	h := handler{
		users:    users,
		podcasts: podcasts,
		episodes: episodes,
		auth:     auth,
	}

	r.GET("/api/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.POST("/login", h.login)

	r.POST("/users", h.createUser)
	r.GET("/users", h.listUsers)
	r.GET("/users/:id", h.getUser)
	r.GET("/users/:id/avatar", h.getAvatar)

	r.GET("/podcasts", h.listPodcasts)
	r.GET("/podcasts/:id", h.getPodcast)
	r.GET("/podcasts/:id/cover", h.getPodcastCover)
	r.GET("/podcasts/:id/rss", h.getPodcastFeed)
	r.GET("/podcasts/:id/episodes", h.listEpisodes)

	r.GET("/episodes/:id", h.getEpisode)
	r.GET("/episodes/:id/cover", h.getEpisodeCover)
	r.GET("/episodes/:id/audio", h.getEpisodeAudio)

	authorized := r.Group("/")
	authorized.Use(h.authenticate, h.rateLimit())
	{
		authorized.PATCH("/users/:id", h.updateUser)
		authorized.DELETE("/users/:id", h.deleteUser)
		authorized.PUT("/users/:id/avatar", h.putAvatar)

		authorized.POST("/podcasts", h.createPodcast)
		authorized.PATCH("/podcasts/:id", h.updatePodcast)
		authorized.DELETE("/podcasts/:id", h.deletePodcast)
		authorized.PUT("/podcasts/:id/cover", h.putPodcastCover)

		authorized.POST("/podcasts/:id/episodes", h.createEpisode)
		authorized.PATCH("/episodes/:id", h.updateEpisode)
		authorized.DELETE("/episodes/:id", h.deleteEpisode)
		authorized.PUT("/episodes/:id/cover", h.putEpisodeCover)
		authorized.PUT("/episodes/:id/audio", h.putEpisodeAudio)
	}

	return r
}

// error maps service failures to HTTP statuses.
func (h handler) error(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrFeedNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
	case errors.Is(err, model.ErrNotFound) || os.IsNotExist(errors.Cause(err)):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, model.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "title taken"})
	case errors.Is(err, model.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, model.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h handler) login(c *gin.Context) {
	req := struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}{}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// serveFile streams a stored asset. contentType overrides sniffing when
// the key carries no extension (feed documents).
func (h handler) serveFile(c *gin.Context, file http.File, contentType string) {
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		h.error(c, errors.Wrap(err, "failed to stat file"))
		return
	}

	if contentType != "" {
		c.Header("Content-Type", contentType)
	}

	http.ServeContent(c.Writer, c.Request, stat.Name(), stat.ModTime(), file)
}

func param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func paging(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.Query("offset"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return offset, limit
}

// upload pulls the "file" part out of a multipart form.
func upload(c *gin.Context) (filename, contentType string, reader io.ReadCloser, ok bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return "", "", nil, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return "", "", nil, false
	}

	return header.Filename, header.Header.Get("Content-Type"), file, true
}
