package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillswap/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *CredentialStore) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)

	return mock, NewWithDB(mock, 5, 30*time.Minute)
}

func TestCreateAccount(t *testing.T) {
	hash := []byte("$2a$10$fakehash")

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantID    int64
		wantErr   error
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT id FROM users WHERE email`).
					WithArgs("alice@example.com").
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("Alice", "alice@example.com", hash, "Pune", true).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectCommit()
			},
			wantID: 7,
		},
		{
			name: "email already registered",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT id FROM users WHERE email`).
					WithArgs("alice@example.com").
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
				mock.ExpectRollback()
			},
			wantErr: storage.ErrEmailTaken,
		},
		{
			name: "name uniqueness violation",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT id FROM users WHERE email`).
					WithArgs("alice@example.com").
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("Alice", "alice@example.com", hash, "Pune", true).
					WillReturnError(&pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: "users_name_key",
					})
				mock.ExpectRollback()
			},
			wantErr: storage.ErrNameTaken,
		},
		{
			name: "email race lost to concurrent insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT id FROM users WHERE email`).
					WithArgs("alice@example.com").
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("Alice", "alice@example.com", hash, "Pune", true).
					WillReturnError(&pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: "users_email_key",
					})
				mock.ExpectRollback()
			},
			wantErr: storage.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := newMockStore(t)
			tt.setupMock(mock)

			id, err := store.CreateAccount(context.Background(), "Alice", "Alice@Example.com", hash, "Pune", true)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserByIdentifier(t *testing.T) {
	now := time.Now()
	columns := []string{
		"id", "name", "email", "password_hash", "location", "is_public",
		"email_verified", "login_attempts", "account_locked_until", "created_at", "updated_at",
	}

	t.Run("by email is case folded", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectQuery(`FROM users\s+WHERE email`).
			WithArgs("alice@example.com").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(int64(1), "Alice", "alice@example.com", []byte("hash"), "Pune", true,
					true, 0, (*time.Time)(nil), now, now))

		user, err := store.UserByIdentifier(context.Background(), "Alice@Example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, "Pune", user.Location)
		assert.True(t, user.EmailVerified)
		assert.Nil(t, user.LockedUntil)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("by name", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectQuery(`FROM users\s+WHERE name`).
			WithArgs("Alice").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(int64(1), "Alice", "alice@example.com", []byte("hash"), "", true,
					false, 2, (*time.Time)(nil), now, now))

		user, err := store.UserByIdentifier(context.Background(), "Alice")
		require.NoError(t, err)
		assert.Equal(t, 2, user.LoginAttempts)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectQuery(`FROM users\s+WHERE email`).
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := store.UserByIdentifier(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordLoginOutcome(t *testing.T) {
	t.Run("success clears counter and lock", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectExec(`SET login_attempts = 0, account_locked_until = NULL`).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.RecordLoginOutcome(context.Background(), 1, true))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure increments with conditional lock", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectExec(`SET login_attempts = login_attempts \+ 1`).
			WithArgs(int64(1), 5, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.RecordLoginOutcome(context.Background(), 1, false))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIsLocked(t *testing.T) {
	tests := []struct {
		name        string
		attempts    int
		lockedUntil *time.Time
		wantLocked  bool
		wantTimed   bool
	}{
		{"no lock", 2, nil, false, false},
		{"timed lock in future", 5, timePtr(time.Now().Add(10 * time.Minute)), true, true},
		{"expired timed lock with low counter", 2, timePtr(time.Now().Add(-time.Minute)), false, false},
		{"counter at max without expiry", 5, nil, true, false},
		{"expired lock but counter still at max", 5, timePtr(time.Now().Add(-time.Minute)), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := newMockStore(t)

			mock.ExpectQuery(`SELECT login_attempts, account_locked_until FROM users`).
				WithArgs(int64(1)).
				WillReturnRows(pgxmock.NewRows([]string{"login_attempts", "account_locked_until"}).
					AddRow(tt.attempts, tt.lockedUntil))

			locked, until, err := store.IsLocked(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLocked, locked)
			if tt.wantTimed {
				assert.NotNil(t, until)
			} else {
				assert.Nil(t, until)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("unknown user", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectQuery(`SELECT login_attempts, account_locked_until FROM users`).
			WithArgs(int64(99)).
			WillReturnError(pgx.ErrNoRows)

		_, _, err := store.IsLocked(context.Background(), 99)
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestConsumeVerificationToken(t *testing.T) {
	t.Run("success marks used and verifies user", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM email_verification_tokens`).
			WithArgs("tok-1").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).
				AddRow(int64(1), time.Now().Add(time.Hour)))
		mock.ExpectExec(`UPDATE email_verification_tokens`).
			WithArgs("tok-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`SET email_verified = TRUE`).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		userID, err := store.ConsumeVerificationToken(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), userID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown or already used token", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM email_verification_tokens`).
			WithArgs("tok-1").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := store.ConsumeVerificationToken(context.Background(), "tok-1")
		assert.ErrorIs(t, err, storage.ErrTokenInvalid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired token left untouched", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM email_verification_tokens`).
			WithArgs("tok-1").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).
				AddRow(int64(1), time.Now().Add(-time.Minute)))
		mock.ExpectRollback()

		_, err := store.ConsumeVerificationToken(context.Background(), "tok-1")
		assert.ErrorIs(t, err, storage.ErrTokenExpired)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConsumeResetToken(t *testing.T) {
	newHash := []byte("$2a$10$newhash")

	t.Run("success replaces password and clears lock", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM password_reset_tokens`).
			WithArgs("tok-1").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).
				AddRow(int64(1), time.Now().Add(time.Hour)))
		mock.ExpectExec(`UPDATE password_reset_tokens`).
			WithArgs("tok-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`SET password_hash`).
			WithArgs(int64(1), newHash).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		userID, err := store.ConsumeResetToken(context.Background(), "tok-1", newHash)
		require.NoError(t, err)
		assert.Equal(t, int64(1), userID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired token", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM password_reset_tokens`).
			WithArgs("tok-1").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).
				AddRow(int64(1), time.Now().Add(-time.Hour)))
		mock.ExpectRollback()

		_, err := store.ConsumeResetToken(context.Background(), "tok-1", newHash)
		assert.ErrorIs(t, err, storage.ErrTokenExpired)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSaveTokens(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)

	t.Run("verification token", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectExec(`INSERT INTO email_verification_tokens`).
			WithArgs(int64(1), "tok-1", expiresAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.SaveVerificationToken(context.Background(), 1, "tok-1", expiresAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reset token with request metadata", func(t *testing.T) {
		mock, store := newMockStore(t)

		mock.ExpectExec(`INSERT INTO password_reset_tokens`).
			WithArgs(int64(1), "tok-1", expiresAt, "1.2.3.4", "test-agent").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.SaveResetToken(context.Background(), 1, "tok-1", expiresAt, "1.2.3.4", "test-agent"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPurgeExpiredTokens(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec(`DELETE FROM email_verification_tokens`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM password_reset_tokens`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.PurgeExpiredTokens(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeExpiredTokensFirstDeleteFails(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec(`DELETE FROM email_verification_tokens`).
		WithArgs(int64(1)).
		WillReturnError(errors.New("connection refused"))

	err := store.PurgeExpiredTokens(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func timePtr(t time.Time) *time.Time {
	return &t
}
