package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNoDeployment      = errors.New("no deployment for chain")
	ErrNoCache           = errors.New("no cached page")
	ErrBondSortAllTokens = errors.New("bond sort requires a single token filter")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidQuestion   = errors.New("invalid question parameters")
	ErrContextDone       = errors.New("context cancelled")
	ErrLockHeld          = errors.New("lock already held")
)
