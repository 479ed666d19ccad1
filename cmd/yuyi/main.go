package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yuaoi107/yuyi/pkg/config"
	"github.com/yuaoi107/yuyi/pkg/feed"
	"github.com/yuaoi107/yuyi/pkg/fs"
	"github.com/yuaoi107/yuyi/pkg/handler"
	"github.com/yuaoi107/yuyi/pkg/service"
	"github.com/yuaoi107/yuyi/pkg/storage"
)

type Opts struct {
	ConfigPath string `long:"config" short:"c" default:"config.toml" env:"YUYI_CONFIG_PATH"`
	Debug      bool   `long:"debug"`
}

var (
	version = "dev"
	commit  = "none"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	opts := Opts{}
	if _, err := flags.Parse(&opts); err != nil {
		log.WithError(err).Fatal("failed to parse command line arguments")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
	}).Info("running yuyi")

	log.Debugf("loading configuration %q", opts.ConfigPath)
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration file")
	}

	repo, err := storage.NewPostgres(ctx, cfg.Database.URL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer repo.Close()

	if err := repo.CreateSchema(ctx); err != nil {
		log.WithError(err).Fatal("failed to create database schema")
	}

	store, err := newStorage(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open asset storage")
	}

	sync := feed.NewSynchronizer(repo, store, cfg.Feed.BaseURL)

	podcasts := service.NewPodcastService(repo, store, sync, cfg.Feed.Generator)
	episodes := service.NewEpisodeService(repo, store, sync)
	users := service.NewUserService(repo, store, podcasts)
	auth := service.NewAuthService(repo, cfg.Auth.Secret, cfg.Auth.TokenTTL.Duration)

	bindAddress := cfg.Server.BindAddress
	if bindAddress == "*" {
		bindAddress = ""
	}

	srv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", bindAddress, cfg.Server.Port),
		Handler: handler.New(users, podcasts, episodes, auth),
	}

	group.Go(func() error {
		log.Infof("running listener at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}

		log.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("server terminated unexpectedly")
		os.Exit(1)
	}

	log.Info("gracefully stopped")
}

func newStorage(cfg *config.Config) (fs.Storage, error) {
	switch cfg.Storage.Type {
	case "local":
		return fs.NewLocal(cfg.Storage.Local.DataDir)
	case "s3":
		return fs.NewS3(cfg.Storage.S3)
	default:
		return nil, errors.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
