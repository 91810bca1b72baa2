package entity

import (
	"time"

	"go-meeting-sync/core/entity"

	"github.com/google/uuid"
)

// CalendarIntegration is a user's link to one calendar provider. Rows are
// soft-deleted only.
type CalendarIntegration struct {
	entity.BaseEntity
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	Provider       string     `db:"provider" json:"provider"`
	AccessToken    string     `db:"access_token" json:"-"`
	RefreshToken   string     `db:"refresh_token" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	Scope          string     `db:"scope" json:"scope"`
	CalendarID     string     `db:"calendar_id" json:"calendar_id"`
	IsDeleted      bool       `db:"is_deleted" json:"-"`
}

func (CalendarIntegration) TableName() string {
	return "calendar_integrations"
}
