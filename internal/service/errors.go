package service

import "errors"

var (
	ErrLoginFailed    = errors.New("login failed")
	ErrNoRootFolder   = errors.New("project metadata carries no root folder")
	ErrNothingToClone = errors.New("no project matched the given name or id")
)
