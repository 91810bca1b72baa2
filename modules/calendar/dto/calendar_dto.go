package dto

import (
	"time"

	"go-meeting-sync/modules/calendar/entity"
	"go-meeting-sync/modules/calendar/provider"

	"github.com/google/uuid"
)

// Forward sync outcomes.
const (
	StatusCreatedNew     = "created_new"
	StatusLinkedExisting = "linked_existing"
	StatusUpdated        = "updated"
	StatusRecreated      = "recreated"
)

// ========== Integration DTOs ==========

type ConnectCalendarRequest struct {
	Provider   string              `json:"provider"`
	CalendarID string              `json:"calendar_id"`
	Credential provider.Credential `json:"credential"`
}

type IntegrationResponse struct {
	ID          uuid.UUID  `json:"id"`
	Provider    string     `json:"provider"`
	Scope       string     `json:"scope"`
	CanWrite    bool       `json:"can_write"`
	CalendarID  string     `json:"calendar_id"`
	ExpiresAt   *time.Time `json:"token_expires_at,omitempty"`
	ConnectedAt time.Time  `json:"connected_at"`
}

func ToIntegrationResponse(integ *entity.CalendarIntegration) IntegrationResponse {
	scope, _ := provider.SelectScope(provider.ParseScopes(integ.Scope))
	return IntegrationResponse{
		ID:          integ.ID,
		Provider:    integ.Provider,
		Scope:       integ.Scope,
		CanWrite:    provider.CanWrite(scope),
		CalendarID:  integ.CalendarID,
		ExpiresAt:   integ.TokenExpiresAt,
		ConnectedAt: integ.CreatedAt,
	}
}

// ========== Sync DTOs ==========

// ForwardSyncResult describes what a forward sync did to the provider.
type ForwardSyncResult struct {
	MeetingID       uuid.UUID `json:"meeting_id"`
	Status          string    `json:"status"`
	ExternalEventID string    `json:"external_event_id"`
	CalendarEventID uuid.UUID `json:"calendar_event_id"`
	HTMLLink        string    `json:"html_link,omitempty"`
}

// SyncSummary is the per-batch result of a reverse sync.
type SyncSummary struct {
	Total           int `json:"total"`
	Processed       int `json:"processed"`
	MeetingsCreated int `json:"meetings_created"`
	MeetingsUpdated int `json:"meetings_updated"`
	MeetingsLinked  int `json:"meetings_linked"`
	Skipped         int `json:"skipped"`
	Errors          int `json:"errors"`
	SkippedInvalid  int `json:"skipped_invalid"`
	SkippedNoLink   int `json:"skipped_no_link"`
}

func (s *SyncSummary) Add(other SyncSummary) {
	s.Total += other.Total
	s.Processed += other.Processed
	s.MeetingsCreated += other.MeetingsCreated
	s.MeetingsUpdated += other.MeetingsUpdated
	s.MeetingsLinked += other.MeetingsLinked
	s.Skipped += other.Skipped
	s.Errors += other.Errors
	s.SkippedInvalid += other.SkippedInvalid
	s.SkippedNoLink += other.SkippedNoLink
}

type ReverseSyncRequest struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// ========== Calendar event DTOs ==========

type CalendarEventResponse struct {
	ID              uuid.UUID  `json:"id"`
	ExternalEventID string     `json:"external_event_id"`
	MeetingID       *uuid.UUID `json:"meeting_id,omitempty"`
	Title           string     `json:"title"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	Location        string     `json:"location,omitempty"`
	HTMLLink        string     `json:"html_link,omitempty"`
}

func ToCalendarEventResponse(ev *entity.CalendarEvent) CalendarEventResponse {
	return CalendarEventResponse{
		ID:              ev.ID,
		ExternalEventID: ev.ExternalEventID,
		MeetingID:       ev.MeetingID,
		Title:           ev.Title,
		StartTime:       ev.StartTime,
		EndTime:         ev.EndTime,
		Location:        ev.Location,
		HTMLLink:        ev.HTMLLink,
	}
}

func ToCalendarEventResponses(events []entity.CalendarEvent) []CalendarEventResponse {
	out := make([]CalendarEventResponse, 0, len(events))
	for i := range events {
		out = append(out, ToCalendarEventResponse(&events[i]))
	}
	return out
}
