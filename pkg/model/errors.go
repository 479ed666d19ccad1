package model

import (
	"errors"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrFeedNotFound       = errors.New("feed not found")
	ErrAlreadyExists      = errors.New("object already exists")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
