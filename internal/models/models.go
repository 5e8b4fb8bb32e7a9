package models

import "time"

type User struct {
	ID            int64
	Name          string
	Email         string
	PassHash      []byte
	Location      string
	IsPublic      bool
	EmailVerified bool
	LoginAttempts int
	LockedUntil   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VerificationToken is a single-use secret proving mailbox ownership.
type VerificationToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (t *VerificationToken) IsExpired() bool {
	return t.ExpiresAt.Before(time.Now())
}

// ResetToken is a single-use secret authorizing a password change.
// The requesting IP and user agent are kept for audit.
type ResetToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

func (t *ResetToken) IsExpired() bool {
	return t.ExpiresAt.Before(time.Now())
}

const (
	PurposeVerification  = "verification"
	PurposePasswordReset = "password_reset"
)

type EmailMessage struct {
	Email   string `json:"to"`
	Name    string `json:"name"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
