package fs

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// LocalConfig is the configuration for local file system storage.
type LocalConfig struct {
	// DataDir is a path to a directory to keep stored objects
	DataDir string `toml:"data_dir"`
}

// Local implements object storage on the local file system. Keys map to
// file paths below the root directory.
type Local struct {
	rootDir string
}

func NewLocal(rootDir string) (*Local, error) {
	if rootDir == "" {
		return nil, errors.New("data directory can't be empty")
	}

	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory: %s", rootDir)
	}

	return &Local{rootDir: rootDir}, nil
}

func (l *Local) Open(key string) (http.File, error) {
	return http.Dir(l.rootDir).Open(key)
}

func (l *Local) Create(ctx context.Context, key string, reader io.Reader) (int64, error) {
	logger := log.WithField("key", key)

	path := filepath.Join(l.rootDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, errors.Wrapf(err, "failed to create object directory: %s", filepath.Dir(path))
	}

	logger.Debugf("copying to: %s", path)
	written, err := l.copyFile(reader, path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to copy file")
	}

	logger.Debugf("copied %d bytes", written)
	return written, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	path := filepath.Join(l.rootDir, filepath.FromSlash(key))

	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

func (l *Local) copyFile(source io.Reader, destinationPath string) (int64, error) {
	dest, err := os.Create(destinationPath)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create destination file")
	}

	defer dest.Close()

	written, err := io.Copy(dest, source)
	if err != nil {
		return 0, errors.Wrap(err, "failed to copy data")
	}

	return written, nil
}
