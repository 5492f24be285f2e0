package store

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateLogin = errors.New("login already taken")
	ErrAlreadyGranted = errors.New("permission already granted")
	ErrNoAccess       = errors.New("no access to project")
)
