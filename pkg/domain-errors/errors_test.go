package domainerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches own code", func(t *testing.T) {
		err := New(CodeForbidden, "not your application")
		assert.True(t, HasCode(err, CodeForbidden))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		inner := errors.New("connection refused")
		err := Wrap(inner, CodeGatewayUnavailable, "payment gateway unreachable")
		assert.True(t, HasCode(err, CodeGatewayUnavailable))
		assert.ErrorIs(t, err, inner)
	})

	t.Run("false for plain errors", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestDescriptionOf(t *testing.T) {
	require.Equal(t, "missing photo", DescriptionOf(New(CodeValidation, "missing photo")))
	require.Empty(t, DescriptionOf(errors.New("internal detail")), "non-domain errors must not leak")
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeInvalidTransition:  http.StatusConflict,
		CodeForbidden:          http.StatusForbidden,
		CodeGatewayUnavailable: http.StatusBadGateway,
		CodeNotFound:           http.StatusNotFound,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeInternal:           http.StatusInternalServerError,
		Code("unknown"):        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
