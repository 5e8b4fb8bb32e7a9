package verify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"skillswap/internal/auth"
	"skillswap/internal/http_server/httperr"
	resp "skillswap/internal/lib/api/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Message string `json:"message"`
}

// New confirms an email verification token delivered as a query
// parameter, so the link from the email can be opened directly.
func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := r.URL.Query().Get("token")
		if token == "" {
			log.Warn("Missing token in request")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Token is required"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := authService.VerifyEmail(ctx, token); err != nil {
			httperr.Render(w, r, log, err)

			return
		}

		log.Info("Email verified successfully")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Email verified successfully. You can now log in.",
		})
	}
}
