package service

import (
	"time"

	"go-meeting-sync/core/utils"
	"go-meeting-sync/modules/calendar/entity"
	meetingentity "go-meeting-sync/modules/meeting/entity"

	"google.golang.org/api/calendar/v3"
)

const conferenceSolutionMeet = "hangoutsMeet"

// buildEventBody renders the provider event for meeting. withConference
// asks the provider to create a Meet conference when the meeting has no
// link of its own.
func buildEventBody(meeting *meetingentity.Meeting, description string, loc *time.Location, withConference bool) *calendar.Event {
	tz := loc.String()
	if tz == "Local" {
		tz = ""
	}

	ev := &calendar.Event{
		Summary:     meeting.Title,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: meeting.StartTime.In(loc).Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: meeting.EndTime().In(loc).Format(time.RFC3339),
			TimeZone: tz,
		},
		Location: meeting.Location,
		ColorId:  ColorFor(meeting),
	}
	if ev.Location == "" {
		ev.Location = meeting.MeetingLink
	}

	if meeting.OrganizerEmail != "" {
		ev.Attendees = []*calendar.EventAttendee{{
			Email:          meeting.OrganizerEmail,
			DisplayName:    meeting.OrganizerName,
			Organizer:      true,
			ResponseStatus: "accepted",
		}}
	}

	if meeting.IsRecurring {
		ev.Recurrence = weeklyRecurrence()
	}

	if withConference && meeting.MeetingLink == "" {
		ev.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             utils.GenerateRequestID(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: conferenceSolutionMeet},
			},
		}
	}

	return ev
}

// applyProviderEvent copies what the provider returned onto the mirror row,
// keeping the meeting's own times when the provider omits them.
func applyProviderEvent(row *entity.CalendarEvent, ev *calendar.Event, meeting *meetingentity.Meeting, loc *time.Location) {
	row.ExternalEventID = ev.Id
	row.Title = ev.Summary
	row.Location = ev.Location
	row.Description = ev.Description
	row.HTMLLink = ev.HtmlLink

	row.StartTime = meeting.StartTime
	row.EndTime = meeting.EndTime()
	if t, ok := parseEventTime(ev.Start, loc); ok {
		row.StartTime = t
	}
	if t, ok := parseEventTime(ev.End, loc); ok {
		row.EndTime = t
	}
}
