package dto

import (
	"time"

	"go-meeting-sync/modules/meeting/entity"

	"github.com/google/uuid"
)

// ===================== Request DTOs =====================

type CreateMeetingRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Timezone        string    `json:"timezone"`
	MeetingLink     string    `json:"meeting_link"`
	Platform        string    `json:"platform"`
	Location        string    `json:"location"`
	OrganizerName   string    `json:"organizer_name"`
	OrganizerEmail  string    `json:"organizer_email"`
	IsRecurring     bool      `json:"is_recurring"`
	MeetingType     string    `json:"meeting_type"`
	Priority        string    `json:"priority"`
}

// UpdateMeetingRequest applies only the fields that are set.
type UpdateMeetingRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	StartTime       *time.Time `json:"start_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	Timezone        *string    `json:"timezone"`
	MeetingLink     *string    `json:"meeting_link"`
	Platform        *string    `json:"platform"`
	Location        *string    `json:"location"`
	IsRecurring     *bool      `json:"is_recurring"`
	MeetingType     *string    `json:"meeting_type"`
	Priority        *string    `json:"priority"`
}

// ===================== Response DTOs =====================

type MeetingResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Timezone        string    `json:"timezone"`
	MeetingLink     string    `json:"meeting_link,omitempty"`
	Platform        string    `json:"platform,omitempty"`
	Location        string    `json:"location,omitempty"`
	OrganizerName   string    `json:"organizer_name,omitempty"`
	OrganizerEmail  string    `json:"organizer_email,omitempty"`
	IsRecurring     bool      `json:"is_recurring"`
	MeetingType     string    `json:"meeting_type,omitempty"`
	Priority        string    `json:"priority,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func ToMeetingResponse(m *entity.Meeting) *MeetingResponse {
	return &MeetingResponse{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime(),
		DurationMinutes: m.DurationMinutes,
		Timezone:        m.Timezone,
		MeetingLink:     m.MeetingLink,
		Platform:        m.Platform,
		Location:        m.Location,
		OrganizerName:   m.OrganizerName,
		OrganizerEmail:  m.OrganizerEmail,
		IsRecurring:     m.IsRecurring,
		MeetingType:     m.MeetingType,
		Priority:        m.Priority,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
