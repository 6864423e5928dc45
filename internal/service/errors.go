package service

import (
	"context"
	"errors"
	"strings"

	"genealogy/internal/auth"
	"genealogy/internal/database"
	"genealogy/internal/repository"
)

var (
	ErrUnauthorized     = errors.New("you do not have permission to perform this action")
	ErrMemberNotFound   = errors.New("member not found")
	ErrClanNotFound     = errors.New("clan not found")
	ErrMarriageNotFound = errors.New("marriage not found")
)

// ValidationError carries every validation failure of one request
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func invalid(msgs ...string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

// AuthorizationError is returned when the actor lacks a capability
type AuthorizationError struct {
	ActorID    int64
	Capability auth.Capability
}

func (e *AuthorizationError) Error() string {
	return ErrUnauthorized.Error()
}

func (e *AuthorizationError) Unwrap() error {
	return ErrUnauthorized
}

// StorageError hides a database failure behind a generic message. The driver
// error stays reachable through Unwrap for logging.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "a storage error occurred"
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ReferentialIntegrityError is re-exported so callers need not import the repository
type ReferentialIntegrityError = repository.ReferentialIntegrityError

func authorize(a auth.Actor, c auth.Capability) error {
	if !a.Can(c) {
		return &AuthorizationError{ActorID: a.ID, Capability: c}
	}
	return nil
}

// storageFailure classifies an error from the repository layer. Errors that
// already belong to the service taxonomy pass through unchanged.
func (b *base) storageFailure(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	var refErr *repository.ReferentialIntegrityError
	var valErr *ValidationError
	switch {
	case errors.As(err, &refErr), errors.As(err, &valErr):
		return err
	case errors.Is(err, ErrMemberNotFound), errors.Is(err, ErrClanNotFound), errors.Is(err, ErrMarriageNotFound):
		return err
	case database.IsForeignKeyViolation(err):
		return invalid("A referenced record does not exist")
	}

	b.logger.Err(ctx, "storage failure", "op", op, "err", err)
	return &StorageError{Op: op, Err: err}
}
