package entity

import (
	"time"

	"go-meeting-sync/core/entity"

	"github.com/google/uuid"
)

// CalendarEvent mirrors one provider event. MeetingID stays nil until the
// event is linked to a meeting.
type CalendarEvent struct {
	entity.BaseEntity
	IntegrationID   uuid.UUID  `db:"integration_id" json:"integration_id"`
	ExternalEventID string     `db:"external_event_id" json:"external_event_id"`
	MeetingID       *uuid.UUID `db:"meeting_id" json:"meeting_id,omitempty"`
	Title           string     `db:"title" json:"title"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         time.Time  `db:"end_time" json:"end_time"`
	Location        string     `db:"location" json:"location"`
	Description     string     `db:"description" json:"description"`
	HTMLLink        string     `db:"html_link" json:"html_link"`
	IsDeleted       bool       `db:"is_deleted" json:"-"`
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}

func (e *CalendarEvent) IsLinked() bool {
	return e.MeetingID != nil && *e.MeetingID != uuid.Nil
}
