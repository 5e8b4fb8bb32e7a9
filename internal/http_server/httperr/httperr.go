// Package httperr is the single place where auth outcomes become transport
// statuses, so the service stays free of HTTP concerns and no handler can
// leak an internal error to a caller.
package httperr

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"skillswap/internal/auth"
	resp "skillswap/internal/lib/api/response"
	sl "skillswap/internal/lib/logger"
	"skillswap/internal/storage"

	"github.com/go-chi/render"
)

// Render maps the error kind to a status and a safe JSON body.
func Render(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var validationErr *auth.ValidationError
	var rateLimitErr *auth.RateLimitError
	var lockedErr *auth.LockedError

	switch {
	case errors.As(err, &validationErr):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.FieldErrors(validationErr.Fields))

	case errors.As(err, &rateLimitErr):
		w.Header().Set("Retry-After", strconv.Itoa(rateLimitErr.RetryAfter))
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, resp.Error(rateLimitErr.Error()))

	case errors.As(err, &lockedErr):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error(lockedErr.Error()))

	case errors.Is(err, auth.ErrInvalidCredentials):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("Invalid credentials"))

	case errors.Is(err, auth.ErrEmailNotVerified):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("Please verify your email address first"))

	case errors.Is(err, storage.ErrEmailTaken):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, resp.Error("Email address is already registered"))

	case errors.Is(err, storage.ErrNameTaken):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, resp.Error("This name is already taken"))

	case errors.Is(err, storage.ErrTokenInvalid):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Invalid token"))

	case errors.Is(err, storage.ErrTokenExpired):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, resp.Error("Token has expired. Please request a new one."))

	case errors.Is(err, auth.ErrEmailSend):
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, resp.Error("Failed to send email. Please try again later."))

	default:
		log.Error("unexpected error", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal error"))
	}
}
