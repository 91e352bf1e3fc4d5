package service

import (
	"errors"
	"fmt"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/repository"
)

// Error kinds. Handlers map them to HTTP status codes; anything else is a
// store or internal failure.
var (
	ErrValidation        = errors.New("invalid input")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
)

// inputError carries a dto normalization failure as ErrValidation while
// keeping the message the client should see.
type inputError struct{ err error }

func (e inputError) Error() string        { return e.err.Error() }
func (e inputError) Unwrap() error        { return e.err }
func (e inputError) Is(target error) bool { return target == ErrValidation }

func asValidation(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, dto.ErrInvalidInput) {
		return inputError{err: err}
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// storeErr translates repository sentinels into service kinds and wraps the rest.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	case errors.Is(err, repository.ErrDuplicateKey):
		return fmt.Errorf("%w: %s: duplicate", ErrConflict, op)
	case errors.Is(err, repository.ErrStaleState):
		return fmt.Errorf("%w: %s: changed concurrently, reload and retry", ErrConflict, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
