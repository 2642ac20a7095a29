package config

import "errors"

var (
	ErrEmptyBaseURL          = errors.New("base url must not be empty")
	ErrInvalidBaseURL        = errors.New("base url must include scheme and host")
	ErrInvalidRequestTimeout = errors.New("request timeout must be positive")
)
