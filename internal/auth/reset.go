package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetPurpose = "password_reset"

// Mailer delivers outbound e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type resetClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
	// PasswordChangedAt pins the token to the password it was issued against.
	PasswordChangedAt int64 `json:"pwc"`
}

// ResetClaims is the verified content of a reset token.
type ResetClaims struct {
	Username          string
	PasswordChangedAt int64
}

// ResetTokens issues and verifies HS256 password reset tokens.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokens constructs ResetTokens.
func NewResetTokens(secret string, ttl time.Duration) *ResetTokens {
	return &ResetTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithNow overrides the clock.
func (t *ResetTokens) WithNow(now func() time.Time) {
	if now != nil {
		t.now = now
	}
}

// Issue signs a token for username bound to its last password change.
func (t *ResetTokens) Issue(username string, lastChange *time.Time) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("auth: reset token secret not configured")
	}
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Purpose:           resetPurpose,
		PasswordChangedAt: passwordChangeStamp(lastChange),
	})
	return token.SignedString(t.secret)
}

// Parse verifies signature, algorithm, expiry and purpose.
func (t *ResetTokens) Parse(raw string) (ResetClaims, error) {
	if raw == "" || len(t.secret) == 0 {
		return ResetClaims{}, ErrInvalidResetToken
	}
	claims := &resetClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return ResetClaims{}, ErrInvalidResetToken
	}
	if claims.Purpose != resetPurpose || claims.Subject == "" {
		return ResetClaims{}, ErrInvalidResetToken
	}
	return ResetClaims{Username: claims.Subject, PasswordChangedAt: claims.PasswordChangedAt}, nil
}

func passwordChangeStamp(at *time.Time) int64 {
	if at == nil {
		return 0
	}
	return at.Unix()
}
