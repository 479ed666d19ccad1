package fs

import (
	"context"
	"io"
	"net/http"
)

// Storage is the asset store that holds binary media (avatars, covers,
// audio) and generated feed documents, addressed by string key.
type Storage interface {
	// FileSystem must be implemented in order to serve stored assets over HTTP.
	http.FileSystem

	// Create will create a new object from reader and return the number of bytes written
	Create(ctx context.Context, key string, reader io.Reader) (int64, error)

	// Delete deletes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Size returns a stored object's size in bytes.
func Size(storage http.FileSystem, key string) (int64, error) {
	file, err := storage.Open(key)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return 0, err
	}

	return stat.Size(), nil
}
