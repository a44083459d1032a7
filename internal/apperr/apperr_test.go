package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusByKind(t *testing.T) {
	cases := map[*Error]int{
		Unauthenticated("x"):          http.StatusUnauthorized,
		Forbidden("x"):                http.StatusForbidden,
		NotFound("x"):                 http.StatusNotFound,
		Conflict("x"):                 http.StatusConflict,
		BadRequest("x"):               http.StatusBadRequest,
		Stock("x"):                    http.StatusBadRequest,
		Internal("x", errors.New("")): http.StatusInternalServerError,
	}

	for err, status := range cases {
		assert.Equal(t, status, err.Status(), string(err.Kind))
	}
}

func TestWrapKeepsTypedErrors(t *testing.T) {
	notFound := NotFound("Client not found")

	wrapped := Wrap(fmt.Errorf("loading client: %w", notFound), "Error fetching client")

	assert.Same(t, notFound, wrapped)
}

func TestWrapHidesUntypedErrors(t *testing.T) {
	cause := errors.New("connection refused")

	wrapped := Wrap(cause, "Error creating order")

	require.NotNil(t, wrapped)
	assert.Equal(t, KindInternal, wrapped.Kind)
	assert.Equal(t, "Error creating order", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "unused"))
}

func TestExtensions(t *testing.T) {
	ext := Stock("Insufficient stock").Extensions()

	assert.Equal(t, "STOCK_ERROR", ext["code"])
	assert.Equal(t, http.StatusBadRequest, ext["statusCode"])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(Conflict("dup")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}
