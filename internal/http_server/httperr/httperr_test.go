package httperr

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillswap/internal/auth"
	resp "skillswap/internal/lib/api/response"
	"skillswap/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderErr(t *testing.T, err error) (*httptest.ResponseRecorder, resp.Response) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	Render(w, r, log, err)

	var body resp.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return w, body
}

func TestRenderValidationError(t *testing.T) {
	w, body := renderErr(t, &auth.ValidationError{Fields: map[string]string{
		"email": "Email is required",
	}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, resp.StatusError, body.Status)
	assert.Equal(t, "Email is required", body.Fields["email"])
}

func TestRenderRateLimitError(t *testing.T) {
	w, body := renderErr(t, &auth.RateLimitError{RetryAfter: 42})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
	assert.Equal(t, resp.StatusError, body.Status)
}

func TestRenderLockedError(t *testing.T) {
	until := time.Now().Add(20 * time.Minute)
	w, body := renderErr(t, &auth.LockedError{Until: &until})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, body.Error, "temporarily locked")
}

func TestRenderSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{"email not verified", auth.ErrEmailNotVerified, http.StatusUnauthorized, "Please verify your email address first"},
		{"email taken", storage.ErrEmailTaken, http.StatusConflict, "Email address is already registered"},
		{"name taken", storage.ErrNameTaken, http.StatusConflict, "This name is already taken"},
		{"token invalid", storage.ErrTokenInvalid, http.StatusBadRequest, "Invalid token"},
		{"token expired", storage.ErrTokenExpired, http.StatusGone, "Token has expired. Please request a new one."},
		{"email send failed", auth.ErrEmailSend, http.StatusBadGateway, "Failed to send email. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Wrapped sentinels map the same as bare ones.
			w, body := renderErr(t, errors.Join(errors.New("op"), tt.err))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}

func TestRenderUnexpectedErrorIsOpaque(t *testing.T) {
	w, body := renderErr(t, errors.New("pq: column does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal error", body.Error)
	assert.NotContains(t, body.Error, "column")
}
