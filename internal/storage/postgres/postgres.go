// Package postgres is the credential store: the only component that mutates
// durable account and token state. Read-then-write sequences run inside a
// transaction so concurrent requests for the same account or token cannot
// race.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillswap/internal/config"
	"skillswap/internal/models"
	"skillswap/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the store uses; tests substitute a mock.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type CredentialStore struct {
	db               DB
	maxLoginAttempts int
	lockoutDuration  time.Duration
}

func New(ctx context.Context, cfg *config.Config) (*CredentialStore, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return NewWithDB(pool, cfg.Security.MaxLoginAttempts, cfg.Security.LockoutDuration), nil
}

func NewWithDB(db DB, maxLoginAttempts int, lockoutDuration time.Duration) *CredentialStore {
	return &CredentialStore{
		db:               db,
		maxLoginAttempts: maxLoginAttempts,
		lockoutDuration:  lockoutDuration,
	}
}

// CreateAccount inserts a new unverified account. The email is pre-checked
// inside the transaction so a duplicate yields ErrEmailTaken rather than a
// raw uniqueness violation.
func (s *CredentialStore) CreateAccount(ctx context.Context, name, email string, passHash []byte, location string, isPublic bool) (int64, error) {
	const op = "storage.postgres.CreateAccount"

	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing int64
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&existing)
	if err == nil {
		return 0, storage.ErrEmailTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO users (name, email, password_hash, location, is_public, email_verified)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, FALSE)
		RETURNING id;
	`

	var id int64
	if err := tx.QueryRow(ctx, query, name, email, passHash, location, isPublic).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "name") {
				return 0, storage.ErrNameTaken
			}
			return 0, storage.ErrEmailTaken
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UserByIdentifier looks up an account by email (identifier contains '@',
// case-folded) or by display name.
func (s *CredentialStore) UserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	const op = "storage.postgres.UserByIdentifier"

	query := `
		SELECT id, name, email, password_hash, COALESCE(location, ''), is_public,
		       email_verified, login_attempts, account_locked_until, created_at, updated_at
		FROM users
	`

	var row pgx.Row
	if strings.Contains(identifier, "@") {
		row = s.db.QueryRow(ctx, query+`WHERE email = $1;`, strings.ToLower(strings.TrimSpace(identifier)))
	} else {
		row = s.db.QueryRow(ctx, query+`WHERE name = $1;`, identifier)
	}

	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PassHash,
		&u.Location,
		&u.IsPublic,
		&u.EmailVerified,
		&u.LoginAttempts,
		&u.LockedUntil,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// RecordLoginOutcome zeroes the attempt counter and clears the lockout on
// success; on failure it increments the counter and sets the lockout expiry
// when the post-increment count reaches the configured max. The failure path
// is one atomic statement so concurrent failed logins cannot under-count.
func (s *CredentialStore) RecordLoginOutcome(ctx context.Context, userID int64, success bool) error {
	const op = "storage.postgres.RecordLoginOutcome"

	if success {
		query := `
			UPDATE users
			SET login_attempts = 0, account_locked_until = NULL, updated_at = now()
			WHERE id = $1;
		`
		if _, err := s.db.Exec(ctx, query, userID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	query := `
		UPDATE users
		SET login_attempts = login_attempts + 1,
		    account_locked_until = CASE
		        WHEN login_attempts + 1 >= $2 THEN $3
		        ELSE account_locked_until
		    END,
		    updated_at = now()
		WHERE id = $1;
	`

	if _, err := s.db.Exec(ctx, query, userID, s.maxLoginAttempts, time.Now().Add(s.lockoutDuration)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsLocked reports a lock when the expiry is set and in the future, or when
// the raw attempt counter has already reached the max even though no expiry
// was written. The second condition is a safety backstop, not redundancy.
func (s *CredentialStore) IsLocked(ctx context.Context, userID int64) (bool, *time.Time, error) {
	const op = "storage.postgres.IsLocked"

	query := `SELECT login_attempts, account_locked_until FROM users WHERE id = $1;`

	var attempts int
	var lockedUntil *time.Time
	if err := s.db.QueryRow(ctx, query, userID).Scan(&attempts, &lockedUntil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil, storage.ErrUserNotFound
		}
		return false, nil, fmt.Errorf("%s: %w", op, err)
	}

	if lockedUntil != nil && lockedUntil.After(time.Now()) {
		return true, lockedUntil, nil
	}
	if attempts >= s.maxLoginAttempts {
		return true, nil, nil
	}

	return false, nil, nil
}

func (s *CredentialStore) SaveVerificationToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	const op = "storage.postgres.SaveVerificationToken"

	query := `
		INSERT INTO email_verification_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3);
	`

	if _, err := s.db.Exec(ctx, query, userID, token, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConsumeVerificationToken atomically claims an unused token. A consumed or
// unknown token yields ErrTokenInvalid; a matched but stale one yields
// ErrTokenExpired and the row is left in place, permanently inert.
func (s *CredentialStore) ConsumeVerificationToken(ctx context.Context, token string) (int64, error) {
	const op = "storage.postgres.ConsumeVerificationToken"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID int64
	var expiresAt time.Time
	err = tx.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM email_verification_tokens
		WHERE token = $1 AND is_used = FALSE
		FOR UPDATE;
	`, token).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrTokenInvalid
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if time.Now().After(expiresAt) {
		return 0, storage.ErrTokenExpired
	}

	if _, err := tx.Exec(ctx, `
		UPDATE email_verification_tokens
		SET is_used = TRUE, used_at = now()
		WHERE token = $1;
	`, token); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	// Proving mailbox ownership is a trust reset for the account.
	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET email_verified = TRUE, login_attempts = 0, account_locked_until = NULL, updated_at = now()
		WHERE id = $1;
	`, userID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return userID, nil
}

func (s *CredentialStore) SaveResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time, ip, userAgent string) error {
	const op = "storage.postgres.SaveResetToken"

	query := `
		INSERT INTO password_reset_tokens (user_id, token, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5);
	`

	if _, err := s.db.Exec(ctx, query, userID, token, expiresAt, ip, userAgent); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConsumeResetToken claims the token and replaces the password hash in the
// same transaction, clearing any lockout state.
func (s *CredentialStore) ConsumeResetToken(ctx context.Context, token string, newPassHash []byte) (int64, error) {
	const op = "storage.postgres.ConsumeResetToken"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID int64
	var expiresAt time.Time
	err = tx.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM password_reset_tokens
		WHERE token = $1 AND is_used = FALSE
		FOR UPDATE;
	`, token).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrTokenInvalid
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if time.Now().After(expiresAt) {
		return 0, storage.ErrTokenExpired
	}

	if _, err := tx.Exec(ctx, `
		UPDATE password_reset_tokens
		SET is_used = TRUE, used_at = now()
		WHERE token = $1;
	`, token); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, login_attempts = 0, account_locked_until = NULL, updated_at = now()
		WHERE id = $1;
	`, userID, newPassHash); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return userID, nil
}

// PurgeExpiredTokens removes expired, unused tokens for an account before a
// new one is issued. Callers treat failure as non-fatal.
func (s *CredentialStore) PurgeExpiredTokens(ctx context.Context, userID int64) error {
	const op = "storage.postgres.PurgeExpiredTokens"

	if _, err := s.db.Exec(ctx, `
		DELETE FROM email_verification_tokens
		WHERE user_id = $1 AND expires_at < now() AND is_used = FALSE;
	`, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.db.Exec(ctx, `
		DELETE FROM password_reset_tokens
		WHERE user_id = $1 AND expires_at < now() AND is_used = FALSE;
	`, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *CredentialStore) Close() {
	s.db.Close()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
