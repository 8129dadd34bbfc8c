package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	orig := NewNotFoundError("No responses found for this identifier", "userId: 1000")
	wrapped := fmt.Errorf("authorize: %w", orig)
	assert.Same(t, orig, Normalize(wrapped))

	plain := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestStandardError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *StandardError
		want int
	}{
		{NewInvalidInputError("x"), http.StatusBadRequest},
		{NewMissingOAuthParamsError([]string{"redirect_uri"}), http.StatusBadRequest},
		{NewInvalidRedirectURIError("::", fmt.Errorf("parse")), http.StatusBadRequest},
		{NewInvalidGrantError("x"), http.StatusBadRequest},
		{NewNotFoundError("m", "d"), http.StatusNotFound},
		{NewNoAuthOutcomeError("1000"), http.StatusNotFound},
		{NewStoreNotConfiguredError("generate"), http.StatusInternalServerError},
		{NewCodeStoreFailedError(fmt.Errorf("down")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestNewMissingOAuthParamsError(t *testing.T) {
	err := NewMissingOAuthParamsError([]string{"client_id", "redirect_uri"})

	assert.Equal(t, "missing: client_id, redirect_uri", err.Details)
	assert.Equal(t, []string{"client_id", "redirect_uri"}, err.Metadata["missing"])
	assert.Contains(t, err.Error(), "MISSING_OAUTH_PARAMS")
}

func TestConvertToBPMNError(t *testing.T) {
	retryable := ConvertToBPMNError(NewCodeStoreFailedError(fmt.Errorf("redis down")))
	assert.Equal(t, 3, retryable.Retries)
	assert.True(t, retryable.Retryable)

	final := ConvertToBPMNError(NewNoAuthOutcomeError("1000"))
	assert.Equal(t, 0, final.Retries)
	assert.Equal(t, "NO_AUTH_OUTCOME", final.Code)

	vars := final.ToErrorVariables()
	require.NotNil(t, vars)
	assert.Equal(t, "NO_AUTH_OUTCOME", vars["originalErrorCode"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "OAUTH", GetErrorCategory(ErrCodeMissingOAuthParams))
	assert.Equal(t, "LOOKUP", GetErrorCategory(ErrCodeNotFound))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeCodeStoreFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
