package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/miniblog/social-api/internal/core/domain"
)

func TestHTTPErrorHandler_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{fmt.Errorf("%w: token expired", domain.ErrUnauthenticated), http.StatusUnauthorized, "authentication required"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{domain.ErrUserExists, http.StatusConflict, "user already exists"},
		{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{fmt.Errorf("get post: %w", domain.ErrPostNotFound), http.StatusNotFound, "get post: post not found"},
		{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{fmt.Errorf("%w: content is required", domain.ErrValidation), http.StatusBadRequest, "validation failed: content is required"},
		{fmt.Errorf("%w: cannot follow yourself", domain.ErrInvalidOperation), http.StatusUnprocessableEntity, "invalid operation: cannot follow yourself"},
		{echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), http.StatusTooManyRequests, "rate limit exceeded"},
	}

	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.New(io.Discard))
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		h(tc.err, c)

		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body.Error != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, body.Error)
		}
	}
}

func TestHTTPErrorHandler_UnknownErrorIsNotLeaked(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.New(io.Discard))(errors.New("mongo: connection reset by peer"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "internal server error" {
		t.Fatalf("internal cause leaked: %q", body.Error)
	}
}
