package overleaf

import "errors"

var (
	ErrUnauthorized    = errors.New("overleaf rejected the session cookies")
	ErrProjectNotFound = errors.New("project not found")
	ErrMissingMeta     = errors.New("expected meta tag not found in page")
)
