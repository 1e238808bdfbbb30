package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted = errors.New("service not started")
	ErrEmptyName  = errors.New("player name is required")
)
