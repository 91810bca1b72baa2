package entity

import (
	"time"

	"go-meeting-sync/core/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SocialLogin is the token set captured when the user signed in with a
// provider. The calendar module reads it to bootstrap an integration and
// writes refreshed tokens back.
type SocialLogin struct {
	entity.BaseEntity
	UserID         uuid.UUID      `db:"user_id"`
	Provider       string         `db:"provider"`
	ProviderEmail  *string        `db:"provider_email"`
	AccessToken    *string        `db:"access_token"`
	RefreshToken   *string        `db:"refresh_token"`
	TokenExpiresAt *time.Time     `db:"token_expires_at"`
	Scopes         pq.StringArray `db:"scopes"`
	IsActive       bool           `db:"is_active"`
}
