package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Lead capture
	ErrDuplicateRegistration  = errors.New("car registration already used")
	ErrPersistenceFailed      = errors.New("submission could not be saved")
	ErrPersistenceUnavailable = errors.New("submission store is not configured")
	ErrFormBusy               = errors.New("form submission already in progress")
	ErrFormCompleted          = errors.New("form already completed")
	ErrRateLimited            = errors.New("too many submissions")
	ErrLockNotAcquired        = errors.New("registration is being processed")

	// Infra
	ErrReadDatabaseRow = errors.New("failed to read database row")
)
