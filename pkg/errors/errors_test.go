package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRendersEveryCode(t *testing.T) {
	want := map[Code]Metadata{
		CodeValidation:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
		CodeUnauthorized:  {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
		CodeForbidden:     {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
		CodeNotFound:      {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
		CodeConflict:      {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected"},
		CodeStateConflict: {HTTPStatus: http.StatusConflict, PublicMessage: "state transition disallowed", DetailsAllowed: true},
		CodeExpired:       {HTTPStatus: http.StatusBadRequest, PublicMessage: "resource expired"},
		CodeInternal:      {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error", Retryable: true},
		CodeDependency:    {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "dependency unavailable", Retryable: true, DetailsAllowed: true},
	}
	for code, meta := range want {
		t.Run(string(code), func(t *testing.T) {
			assert.Equal(t, meta, MetadataFor(code))
		})
	}

	assert.Equal(t, want[CodeInternal], MetadataFor("NOT_A_CODE"), "unknown codes render as internal")
}

func TestErrorStringIncludesCause(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: event not found", New(CodeNotFound, "event not found").Error())

	wrapped := Wrap(CodeDependency, stdErrors.New("connection refused"), "load principal")
	assert.Equal(t, "DEPENDENCY_ERROR: load principal: connection refused", wrapped.Error())
}

func TestDetailsAreOptIn(t *testing.T) {
	err := New(CodeValidation, "invalid request body")
	assert.Nil(t, err.Details())

	err.WithDetails(map[string]string{"email": "is required"})
	assert.Equal(t, map[string]string{"email": "is required"}, err.Details())
}

func TestNilErrorIsSafe(t *testing.T) {
	var err *Error
	assert.Equal(t, CodeInternal, err.Code())
	assert.Empty(t, err.Message())
	assert.Nil(t, err.WithDetails("ignored"))
	assert.NoError(t, err.Unwrap())
}

func TestCodeLookupThroughWrapping(t *testing.T) {
	cause := stdErrors.New("deadlock detected")
	err := fmt.Errorf("approve request: %w", Wrap(CodeStateConflict, cause, "request already responded"))

	typed := As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "request already responded", typed.Message())
	assert.True(t, IsCode(err, CodeStateConflict))
	assert.False(t, IsCode(err, CodeConflict))
	assert.ErrorIs(t, err, cause)

	assert.Nil(t, As(nil))
	assert.Nil(t, As(cause))
}

func TestDumpWalksTheChain(t *testing.T) {
	dump := Dump(Wrap(CodeInternal, stdErrors.New("disk full"), "insert notification"))
	assert.Equal(t, CodeInternal, dump.Code)
	assert.Len(t, dump.Chain, 2)
}
