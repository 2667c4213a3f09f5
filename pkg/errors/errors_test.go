package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	cloned := Clone(ErrDuplicateYearChange, "already changed to 2026")
	assert.True(t, errors.Is(cloned, ErrDuplicateYearChange))
	assert.False(t, errors.Is(cloned, ErrConflict))
	assert.Equal(t, "already changed to 2026", cloned.Message)
	assert.Equal(t, "exam year change already recorded", ErrDuplicateYearChange.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	raw := fmt.Errorf("insert ledger: %w", errors.New("connection reset"))
	appErr := FromError(raw)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, raw)
	assert.Contains(t, appErr.Error(), "connection reset")
}

func TestFromErrorUnwrapsTyped(t *testing.T) {
	wrapped := fmt.Errorf("confirm: %w", Clone(ErrValidation, "newClassId is required"))
	appErr := FromError(wrapped)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "newClassId is required", appErr.Message)
}
