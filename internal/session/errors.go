package session

import "errors"

var (
	ErrNotLoggedIn    = errors.New("no cached session found")
	ErrSessionExpired = errors.New("cached session has expired")
	ErrGCLBNotFound   = errors.New("GCLB cookie not found in Set-Cookie response header")
)
