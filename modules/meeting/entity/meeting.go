package entity

import (
	"time"

	"go-meeting-sync/core/entity"

	"github.com/google/uuid"
)

// Conferencing platforms a meeting link can belong to.
const (
	PlatformZoom           = "zoom"
	PlatformGoogleMeet     = "google_meet"
	PlatformMicrosoftTeams = "microsoft_teams"
	PlatformWebex          = "webex"
	PlatformOther          = "other"
)

const DefaultDurationMinutes = 60

type Meeting struct {
	entity.BaseEntity
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Timezone        string     `db:"timezone" json:"timezone"`
	MeetingLink     string     `db:"meeting_link" json:"meeting_link"`
	Platform        string     `db:"platform" json:"platform"`
	Location        string     `db:"location" json:"location"`
	OrganizerName   string     `db:"organizer_name" json:"organizer_name"`
	OrganizerEmail  string     `db:"organizer_email" json:"organizer_email"`
	IsRecurring     bool       `db:"is_recurring" json:"is_recurring"`
	MeetingType     string     `db:"meeting_type" json:"meeting_type"`
	Priority        string     `db:"priority" json:"priority"`
	DeletedAt       *time.Time `db:"deleted_at" json:"-"`
}

func (Meeting) TableName() string {
	return "meetings"
}

func (m *Meeting) EndTime() time.Time {
	duration := m.DurationMinutes
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}
	return m.StartTime.Add(time.Duration(duration) * time.Minute)
}
