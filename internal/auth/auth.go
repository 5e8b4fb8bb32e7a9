// Package auth orchestrates the credential lifecycle: registration with email
// verification, login with attempt throttling and lockout, and the
// password-reset and resend-verification workflows. It owns no durable state
// of its own.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"skillswap/internal/config"
	"skillswap/internal/lib/jwt"
	sl "skillswap/internal/lib/logger"
	"skillswap/internal/lib/token"
	"skillswap/internal/models"
	"skillswap/internal/ratelimit"
	"skillswap/internal/storage"
	"skillswap/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	MsgRegistered          = "Registration successful! Please check your email to verify your account."
	MsgRegisteredEmailDown = "Registration successful! However, we couldn't send the verification email. Please request a new one."
	MsgResetRequested      = "If an account with this email exists, you will receive password reset instructions."
	MsgVerificationResent  = "If an account with this email exists and is not verified, you will receive a verification email."
)

type UserSaver interface {
	CreateAccount(ctx context.Context, name, email string, passHash []byte, location string, isPublic bool) (int64, error)
	RecordLoginOutcome(ctx context.Context, userID int64, success bool) error
	SaveVerificationToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	ConsumeVerificationToken(ctx context.Context, token string) (int64, error)
	SaveResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time, ip, userAgent string) error
	ConsumeResetToken(ctx context.Context, token string, newPassHash []byte) (int64, error)
	PurgeExpiredTokens(ctx context.Context, userID int64) error
}

type UserProvider interface {
	UserByIdentifier(ctx context.Context, identifier string) (models.User, error)
	IsLocked(ctx context.Context, userID int64) (bool, *time.Time, error)
}

type Mailer interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	limiter     ratelimit.Limiter
	mailer      Mailer

	baseURL              string
	jwtSecret            string
	accessTokenTTL       time.Duration
	verificationTokenTTL time.Duration
	resetTokenTTL        time.Duration
	requireVerifiedLogin bool
	limits               config.RateLimits
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	limiter ratelimit.Limiter,
	mailer Mailer,
	cfg *config.Config,
) *Auth {
	return &Auth{
		log:                  log,
		usrSaver:             userSaver,
		usrProvider:          userProvider,
		limiter:              limiter,
		mailer:               mailer,
		baseURL:              cfg.BaseURL,
		jwtSecret:            cfg.Tokens.JWTSecret,
		accessTokenTTL:       cfg.Tokens.AccessTokenTTL,
		verificationTokenTTL: cfg.Tokens.VerificationTokenTTL,
		resetTokenTTL:        cfg.Tokens.ResetTokenTTL,
		requireVerifiedLogin: cfg.Security.RequireVerifiedLogin,
		limits:               cfg.RateLimits,
	}
}

type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Location string
	IsPublic bool
}

// Register validates all fields together, creates the unverified account, and
// queues the verification email. A delivery failure never fails registration:
// the user can request a new email later.
func (a *Auth) Register(ctx context.Context, req RegisterRequest) (int64, string, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	fields := make(map[string]string)
	if ok, msg := validation.Name(req.Name); !ok {
		fields["name"] = msg
	}
	if ok, msg := validation.Email(req.Email); !ok {
		fields["email"] = msg
	}
	if ok, msg := validation.Password(req.Password); !ok {
		fields["password"] = msg
	}
	if req.Location != "" {
		if ok, msg := validation.Location(req.Location); !ok {
			fields["location"] = msg
		}
	}
	if len(fields) > 0 {
		return 0, "", &ValidationError{Fields: fields}
	}

	passHash, err := hashPassword(req.Password, bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)

	id, err := a.usrSaver.CreateAccount(ctx, name, email, passHash, strings.TrimSpace(req.Location), req.IsPublic)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) || errors.Is(err, storage.ErrNameTaken) {
			log.Warn("account conflict", sl.Err(err))
			return 0, "", fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to create account", sl.Err(err))
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("uid", id))

	if err := a.sendVerification(ctx, id, name, email); err != nil {
		log.Error("failed to send verification email", sl.Err(err), slog.Int64("uid", id))
		return id, MsgRegisteredEmailDown, nil
	}

	return id, MsgRegistered, nil
}

// Login runs the per-attempt state machine: IP rate limit, attempt recording,
// input shape checks, lookup, lock check, password check, outcome recording.
// Lookup misses and password mismatches produce the same generic error.
func (a *Auth) Login(ctx context.Context, identifier, password, ip string) (models.User, string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op), slog.String("ip", ip))

	key := "login_" + ip
	limited, retryAfter, err := a.limiter.IsLimited(ctx, key, a.limits.LoginAttempts, a.limits.LoginWindow)
	if err != nil {
		// The throttle is best effort; an unreachable backend must not take
		// logins down with it.
		log.Warn("rate limit check failed", sl.Err(err))
	}
	if limited {
		return models.User{}, "", &RateLimitError{RetryAfter: retryAfter}
	}

	if err := a.limiter.RecordAttempt(ctx, key); err != nil {
		log.Warn("failed to record login attempt", sl.Err(err))
	}

	if identifier == "" || password == "" {
		return models.User{}, "", &ValidationError{Fields: map[string]string{
			"identifier": "Username and password are required",
		}}
	}
	if strings.Contains(identifier, "@") {
		if ok, _ := validation.Email(identifier); !ok {
			return models.User{}, "", &ValidationError{Fields: map[string]string{"identifier": "Invalid email format"}}
		}
	} else {
		if ok, _ := validation.Name(identifier); !ok {
			return models.User{}, "", &ValidationError{Fields: map[string]string{"identifier": "Invalid username format"}}
		}
	}

	user, err := a.usrProvider.UserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("login failed", slog.String("reason", "user_not_found"))
			return models.User{}, "", ErrInvalidCredentials
		}
		log.Error("failed to get user", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	locked, until, err := a.usrProvider.IsLocked(ctx, user.ID)
	if err != nil {
		log.Error("failed to check lock status", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}
	if locked {
		log.Warn("login attempt on locked account", slog.Int64("uid", user.ID))
		return models.User{}, "", &LockedError{Until: until}
	}

	if err := verifyPassword(user.PassHash, password); err != nil {
		if err := a.usrSaver.RecordLoginOutcome(ctx, user.ID, false); err != nil {
			log.Error("failed to record failed login", sl.Err(err), slog.Int64("uid", user.ID))
		}
		log.Info("invalid credentials", slog.Int64("uid", user.ID))
		return models.User{}, "", ErrInvalidCredentials
	}

	if a.requireVerifiedLogin && !user.EmailVerified {
		return models.User{}, "", ErrEmailNotVerified
	}

	if err := a.usrSaver.RecordLoginOutcome(ctx, user.ID, true); err != nil {
		log.Error("failed to record successful login", sl.Err(err), slog.Int64("uid", user.ID))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := jwt.NewToken(user, a.jwtSecret, a.accessTokenTTL)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return user, accessToken, nil
}

// VerifyEmail consumes a verification token. Invalid and expired tokens are
// surfaced distinctly so the client can offer a resend only when it helps.
func (a *Auth) VerifyEmail(ctx context.Context, tok string) error {
	const op = "auth.VerifyEmail"

	log := a.log.With(slog.String("op", op))

	if tok == "" {
		return &ValidationError{Fields: map[string]string{"token": "Verification token is required"}}
	}

	userID, err := a.usrSaver.ConsumeVerificationToken(ctx, tok)
	if err != nil {
		if errors.Is(err, storage.ErrTokenInvalid) || errors.Is(err, storage.ErrTokenExpired) {
			log.Warn("verification rejected", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to consume verification token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.Int64("uid", userID))

	return nil
}

// ForgotPassword issues a reset token for a verified account. A missing
// account gets the same success message so responses never reveal whether an
// email is registered. Delivery failure is fatal here: without the email the
// user has no way to obtain the token.
func (a *Auth) ForgotPassword(ctx context.Context, email, ip, userAgent string) (string, error) {
	const op = "auth.ForgotPassword"

	log := a.log.With(slog.String("op", op), slog.String("ip", ip))

	if ok, msg := validation.Email(email); !ok {
		return "", &ValidationError{Fields: map[string]string{"email": msg}}
	}

	email = strings.ToLower(strings.TrimSpace(email))

	key := "password_reset_" + email
	limited, retryAfter, err := a.limiter.IsLimited(ctx, key, a.limits.ResetAttempts, a.limits.ResetWindow)
	if err != nil {
		log.Warn("rate limit check failed", sl.Err(err))
	}
	if limited {
		return "", &RateLimitError{RetryAfter: retryAfter}
	}
	if err := a.limiter.RecordAttempt(ctx, key); err != nil {
		log.Warn("failed to record reset attempt", sl.Err(err))
	}

	user, err := a.usrProvider.UserByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("password reset requested for unknown email")
			return MsgResetRequested, nil
		}
		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// Reset links only go to proven-owned mailboxes.
	if !user.EmailVerified {
		log.Warn("password reset requested for unverified account", slog.Int64("uid", user.ID))
		return "", ErrEmailNotVerified
	}

	if err := a.usrSaver.PurgeExpiredTokens(ctx, user.ID); err != nil {
		log.Warn("failed to purge expired tokens", sl.Err(err), slog.Int64("uid", user.ID))
	}

	resetToken, err := token.New()
	if err != nil {
		log.Error("failed to generate reset token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := time.Now().Add(a.resetTokenTTL)
	if err := a.usrSaver.SaveResetToken(ctx, user.ID, resetToken, expiresAt, ip, userAgent); err != nil {
		log.Error("failed to save reset token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	msg := models.EmailMessage{
		Email:   user.Email,
		Name:    user.Name,
		Link:    fmt.Sprintf("%s/reset-password?token=%s", a.baseURL, resetToken),
		Purpose: models.PurposePasswordReset,
	}
	if err := a.mailer.Send(ctx, msg); err != nil {
		log.Error("failed to send reset email", sl.Err(err), slog.Int64("uid", user.ID))
		return "", fmt.Errorf("%s: %w", op, ErrEmailSend)
	}

	log.Info("password reset requested", slog.Int64("uid", user.ID))

	return MsgResetRequested, nil
}

// ResetPassword consumes a reset token and replaces the password. All lockout
// state clears with it.
func (a *Auth) ResetPassword(ctx context.Context, tok, newPassword string) error {
	const op = "auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	if tok == "" {
		return &ValidationError{Fields: map[string]string{"token": "Reset token is required"}}
	}
	if ok, msg := validation.Password(newPassword); !ok {
		return &ValidationError{Fields: map[string]string{"password": msg}}
	}

	passHash, err := hashPassword(newPassword, bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	userID, err := a.usrSaver.ConsumeResetToken(ctx, tok, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrTokenInvalid) || errors.Is(err, storage.ErrTokenExpired) {
			log.Warn("reset rejected", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to consume reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset", slog.Int64("uid", userID))

	return nil
}

// ResendVerification issues a fresh verification token. Unknown and
// already-verified accounts get the same generic message.
func (a *Auth) ResendVerification(ctx context.Context, email, ip string) (string, error) {
	const op = "auth.ResendVerification"

	log := a.log.With(slog.String("op", op), slog.String("ip", ip))

	if ok, msg := validation.Email(email); !ok {
		return "", &ValidationError{Fields: map[string]string{"email": msg}}
	}

	email = strings.ToLower(strings.TrimSpace(email))

	key := "verify_resend_" + email
	limited, retryAfter, err := a.limiter.IsLimited(ctx, key, a.limits.ResendAttempts, a.limits.ResendWindow)
	if err != nil {
		log.Warn("rate limit check failed", sl.Err(err))
	}
	if limited {
		return "", &RateLimitError{RetryAfter: retryAfter}
	}
	if err := a.limiter.RecordAttempt(ctx, key); err != nil {
		log.Warn("failed to record resend attempt", sl.Err(err))
	}

	user, err := a.usrProvider.UserByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("verification resend requested for unknown email")
			return MsgVerificationResent, nil
		}
		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if user.EmailVerified {
		return MsgVerificationResent, nil
	}

	if err := a.usrSaver.PurgeExpiredTokens(ctx, user.ID); err != nil {
		log.Warn("failed to purge expired tokens", sl.Err(err), slog.Int64("uid", user.ID))
	}

	if err := a.sendVerification(ctx, user.ID, user.Name, user.Email); err != nil {
		log.Error("failed to send verification email", sl.Err(err), slog.Int64("uid", user.ID))
		return "", fmt.Errorf("%s: %w", op, ErrEmailSend)
	}

	log.Info("verification email resent", slog.Int64("uid", user.ID))

	return MsgVerificationResent, nil
}

func (a *Auth) sendVerification(ctx context.Context, userID int64, name, email string) error {
	const op = "auth.sendVerification"

	verificationToken, err := token.New()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := time.Now().Add(a.verificationTokenTTL)
	if err := a.usrSaver.SaveVerificationToken(ctx, userID, verificationToken, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.EmailMessage{
		Email:   email,
		Name:    name,
		Link:    fmt.Sprintf("%s/verify?token=%s", a.baseURL, verificationToken),
		Purpose: models.PurposeVerification,
	}
	if err := a.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
