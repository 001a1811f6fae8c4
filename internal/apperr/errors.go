package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrMalformedResults = errors.New("malformed results manifest")
)
