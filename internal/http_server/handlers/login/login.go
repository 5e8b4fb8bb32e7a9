package login

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"skillswap/internal/auth"
	"skillswap/internal/http_server/httperr"
	"skillswap/internal/lib/api/request"
	resp "skillswap/internal/lib/api/response"
	sl "skillswap/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	// Identifier is an email or a display name.
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type User struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

type Response struct {
	resp.Response
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Warn("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, accessToken, err := authService.Login(ctx, req.Identifier, req.Password, request.ClientIP(r))
		if err != nil {
			httperr.Render(w, r, log, err)

			return
		}

		log.Info("User logged in successfully", slog.Int64("uid", user.ID))

		render.JSON(w, r, Response{
			Response:    resp.OK(),
			AccessToken: accessToken,
			User: User{
				ID:            user.ID,
				Name:          user.Name,
				Email:         user.Email,
				EmailVerified: user.EmailVerified,
			},
		})
	}
}
