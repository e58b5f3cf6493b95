package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeNotFound, "credential not found")

	var domainErr *Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, CodeNotFound, domainErr.Code)
	assert.Equal(t, "credential not found", err.Error())
}

func TestErrorFallsBackToCode(t *testing.T) {
	err := &Error{Code: CodeInternal}
	assert.Equal(t, "internal_error", err.Error())
}

func TestWrapPreservesExistingCode(t *testing.T) {
	inner := New(CodeValidation, "payment amount out of range")
	wrapped := Wrap(inner, CodeInternal, "issue credential")

	assert.True(t, HasCode(wrapped, CodeValidation))
	assert.False(t, HasCode(wrapped, CodeInternal))
	assert.Equal(t, "issue credential", wrapped.Error())
}

func TestWrapPlainError(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	wrapped := Wrap(inner, CodeExternalService, "create DID")

	assert.True(t, HasCode(wrapped, CodeExternalService))
	assert.ErrorIs(t, wrapped, inner)
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeTimeout, "status list timed out")
	b := New(CodeTimeout, "different message")

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, New(CodeNotFound, ""))
}

func TestHasCodeNonDomainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}
