package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderError(t *testing.T) {
	cause := errors.New("rate limited")

	err := ProviderError("fetch answers", cause)

	assert.ErrorIs(t, err, ErrProviderFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "fetch answers: completion provider request failed: rate limited", err.Error())

	var de *DomainError
	if assert.ErrorAs(t, err, &de) {
		assert.Equal(t, "provider_error", de.Code)
		assert.Equal(t, "fetch answers", de.Message)
	}
}

func TestProviderError_AlreadyMarked(t *testing.T) {
	inner := ProviderError("candidate 0", errors.New("502"))

	assert.Same(t, inner, ProviderError("fetch answers", inner))
	assert.Nil(t, ProviderError("fetch answers", nil))
}

func TestNewDomainErrorWithCode(t *testing.T) {
	err := NewDomainErrorWithCode(ErrInvalidInput, "bad position", "invalid_position")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid_position", err.Code)
	assert.Equal(t, "bad position: invalid input", err.Error())
}
