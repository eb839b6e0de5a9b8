package services

import "errors"

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrSnapshotsDisabled  = errors.New("snapshot storage is not configured")
)
