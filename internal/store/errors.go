package store

import (
	"errors"

	"disaster-relief-api-server/internal/apperr"
)

// AppError maps a repository error onto an API error kind, using message for
// the client-facing text. Errors that already carry a kind pass through.
func AppError(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return &apperr.Error{Kind: apperr.KindNotFound, Message: message, Err: err}
	case errors.Is(err, ErrInsufficientStock):
		return &apperr.Error{Kind: apperr.KindInsufficientStock, Message: message, Err: err}
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrStale):
		return &apperr.Error{Kind: apperr.KindConflict, Message: message, Err: err}
	}
	return apperr.Internal(err, "Server error")
}
