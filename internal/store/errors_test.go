package store

import (
	"errors"
	"fmt"
	"testing"

	"disaster-relief-api-server/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"not found", fmt.Errorf("x: %w", ErrNotFound), apperr.KindNotFound},
		{"stock", fmt.Errorf("x: %w", ErrInsufficientStock), apperr.KindInsufficientStock},
		{"duplicate", ErrDuplicate, apperr.KindConflict},
		{"stale", ErrStale, apperr.KindConflict},
		{"other", errors.New("boom"), apperr.KindInternal},
		{"already typed", apperr.Forbidden("no"), apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(AppError(tt.err, "msg")))
		})
	}
	assert.NoError(t, AppError(nil, "msg"))
	assert.ErrorIs(t, AppError(ErrNotFound, "msg"), ErrNotFound)
}
