package register

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
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Location string `json:"location,omitempty"`
	IsPublic *bool  `json:"is_public,omitempty"`
}

type Response struct {
	resp.Response
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

		isPublic := true
		if req.IsPublic != nil {
			isPublic = *req.IsPublic
		}

		userID, message, err := authService.Register(ctx, auth.RegisterRequest{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Location: req.Location,
			IsPublic: isPublic,
		})
		if err != nil {
			httperr.Render(w, r, log, err)

			return
		}

		log.Info("User registered", slog.Int64("id", userID), slog.String("ip", request.ClientIP(r)))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			UserID:   userID,
			Message:  message,
		})
	}
}
