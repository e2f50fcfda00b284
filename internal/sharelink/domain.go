package sharelink

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxTTL bounds the lifetime of a share link.
const MaxTTL = 30 * 24 * time.Hour

var (
	ErrNotFound        = errors.New("pautan kongsi tidak dijumpai")
	ErrExpired         = errors.New("pautan kongsi telah tamat tempoh")
	ErrUnknownResource = errors.New("jenis rekod tidak boleh dikongsi")
)

// Link grants anonymous read access to one record until ExpiresAt.
type Link struct {
	Token      uuid.UUID  `json:"token"`
	Resource   string     `json:"resource"`
	ResourceID int64      `json:"resource_id"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedBy  int64      `json:"created_by"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Active reports whether the link can still be used at now.
func (l Link) Active(now time.Time) bool {
	return l.RevokedAt == nil && now.Before(l.ExpiresAt)
}

// CreateInput requests a new link. TTLHours of zero uses the configured default.
type CreateInput struct {
	Resource   string `json:"resource" validate:"required,oneof=surat bayaran"`
	ResourceID int64  `json:"resource_id" validate:"required,gt=0"`
	TTLHours   int    `json:"ttl_hours" validate:"gte=0,lte=720"`
}
