package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{Validation("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{Upstream("x", errors.New("smtp down")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("load order: %w", NotFound("order not found"))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "order not found", PublicMessage(err))
}

func TestPublicMessageHidesInternals(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: relation does not exist")))
	err := Upstream("payment gateway unavailable", errors.New("dial tcp: timeout"))
	assert.Equal(t, "payment gateway unavailable", PublicMessage(err))
	assert.Equal(t, "payment gateway unavailable: dial tcp: timeout", err.Error())
}
