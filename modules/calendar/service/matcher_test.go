package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	meetingentity "go-meeting-sync/modules/meeting/entity"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/calendar/v3"
)

func TestFindMatchingEventIgnoresCaseAndCancelled(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	cal := newFakeCalendar(
		&calendar.Event{Id: "a", Summary: "weekly sync", Status: statusCancelled, Start: timed(start)},
		&calendar.Event{Id: "b", Summary: "  Weekly Sync ", Start: timed(start.Add(time.Hour))},
		&calendar.Event{Id: "c", Summary: "Other", Start: timed(start)},
	)
	m := NewEventMatcher("UTC")
	meeting := &meetingentity.Meeting{BaseEntity: baseWithID(), Title: "Weekly Sync", StartTime: start}

	assert.Equal(t, "b", m.FindMatchingEvent(context.Background(), cal, meeting))
	assert.Equal(t, []int64{0}, cal.lists)
}

func TestFindMatchingEventFallsBackToNextSevenDays(t *testing.T) {
	cal := newFakeCalendar()
	cal.listErr = fmt.Errorf("boom")
	m := NewEventMatcher("UTC")
	meeting := &meetingentity.Meeting{BaseEntity: baseWithID(), Title: "Weekly Sync", StartTime: time.Now()}

	assert.Equal(t, "", m.FindMatchingEvent(context.Background(), cal, meeting))
	assert.Equal(t, []int64{0, 100}, cal.lists)
}

func TestFindMatchingEventNoMatch(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cal := newFakeCalendar(&calendar.Event{Id: "x", Summary: "Retro", Start: timed(start)})
	m := NewEventMatcher("")

	meeting := &meetingentity.Meeting{BaseEntity: baseWithID(), Title: "Planning", StartTime: start}
	assert.Empty(t, m.FindMatchingEvent(context.Background(), cal, meeting))
}

func TestExtractMeetingLink(t *testing.T) {
	tests := []struct {
		name     string
		ev       *calendar.Event
		link     string
		platform string
	}{
		{
			name:     "hangout link first",
			ev:       &calendar.Event{HangoutLink: "https://meet.google.com/aaa-bbbb-ccc", Location: "https://zoom.us/j/1"},
			link:     "https://meet.google.com/aaa-bbbb-ccc",
			platform: meetingentity.PlatformGoogleMeet,
		},
		{
			name: "video entry point preferred",
			ev: &calendar.Event{ConferenceData: &calendar.ConferenceData{EntryPoints: []*calendar.EntryPoint{
				{EntryPointType: "phone", Uri: "tel:+1-555"},
				{EntryPointType: "more", Uri: "https://example.com/more"},
				{EntryPointType: "video", Uri: "https://teams.microsoft.com/l/meetup-join/1"},
			}}},
			link:     "https://teams.microsoft.com/l/meetup-join/1",
			platform: meetingentity.PlatformMicrosoftTeams,
		},
		{
			name:     "url inside location",
			ev:       &calendar.Event{Location: "Room 4 / https://acme.zoom.us/j/123?pwd=x"},
			link:     "https://acme.zoom.us/j/123?pwd=x",
			platform: meetingentity.PlatformZoom,
		},
		{
			name: "no link",
			ev:   &calendar.Event{Location: "Room 4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, platform := ExtractMeetingLink(tt.ev)
			assert.Equal(t, tt.link, link)
			assert.Equal(t, tt.platform, platform)
		})
	}
}

func TestClassifyPlatform(t *testing.T) {
	assert.Equal(t, meetingentity.PlatformWebex, ClassifyPlatform("https://acme.webex.com/meet/x"))
	assert.Equal(t, meetingentity.PlatformOther, ClassifyPlatform("https://whereby.com/room"))
}

func TestIsValidForReverseSync(t *testing.T) {
	start := timed(time.Now())
	assert.True(t, IsValidForReverseSync(&calendar.Event{Id: "1", Summary: "A", Start: start}))
	assert.True(t, IsValidForReverseSync(&calendar.Event{Id: "1", Summary: "A", End: &calendar.EventDateTime{Date: "2025-03-10"}}))
	assert.False(t, IsValidForReverseSync(&calendar.Event{Summary: "A", Start: start}))
	assert.False(t, IsValidForReverseSync(&calendar.Event{Id: "1", Summary: " ", Start: start}))
	assert.False(t, IsValidForReverseSync(&calendar.Event{Id: "1", Summary: "A"}))
	assert.False(t, IsValidForReverseSync(&calendar.Event{Id: "1", Summary: "A", Start: start, Status: "cancelled"}))
}
