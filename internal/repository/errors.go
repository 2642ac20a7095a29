package repository

import "errors"

var (
	ErrNotRepository     = errors.New("not an olsync repository")
	ErrAlreadyRepository = errors.New("already inside an olsync repository")
	ErrDirExists         = errors.New("target directory already exists")
	ErrUnsafeArchivePath = errors.New("archive entry escapes the target directory")
)
