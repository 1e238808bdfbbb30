package csvio

import "errors"

var (
	ErrMissingHeader = errors.New("csv has no header row")
	ErrNoPlayer      = errors.New("csv has no player column")
)
