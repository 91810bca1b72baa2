package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-meeting-sync/core/errors"
	"go-meeting-sync/modules/calendar/dto"
	"go-meeting-sync/modules/calendar/entity"
	meetingentity "go-meeting-sync/modules/meeting/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

const teamsLink = "https://teams.microsoft.com/l/meetup-join/19"

// seedMirrored stores a meeting and a linked mirror row that already agree
// with ev.
func seedMirrored(t *testing.T, h *harness, ev *calendar.Event, start time.Time) *meetingentity.Meeting {
	t.Helper()
	link, platform := ExtractMeetingLink(ev)
	m := h.meetings.add(meetingentity.Meeting{
		UserID:      h.userID,
		Title:       ev.Summary,
		StartTime:   start,
		MeetingLink: link,
		Platform:    platform,
	})

	integ, err := h.svc.reverse.resolver.integration(context.Background(), h.userID)
	require.NoError(t, err)
	h.calendars.put(entity.CalendarEvent{
		IntegrationID:   integ.ID,
		ExternalEventID: ev.Id,
		MeetingID:       &m.ID,
		Title:           ev.Summary,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
	})
	return m
}

func reverseFixture() []*calendar.Event {
	return []*calendar.Event{
		{Id: "cancelled-1", Summary: "Old sync", Status: "cancelled", Start: timed(syncDay)},
		{
			Id:       "zoom-1",
			Summary:  "Customer demo",
			Location: "https://acme.zoom.us/j/987",
			Start:    timed(syncDay.Add(time.Hour)),
			End:      timed(syncDay.Add(90 * time.Minute)),
		},
		{Id: "teams-1", Summary: "Client call", Location: teamsLink, Start: timed(syncDay.Add(3 * time.Hour))},
	}
}

func TestReverseSyncEndToEnd(t *testing.T) {
	fixture := reverseFixture()
	h := newHarness(t, fixture...)
	seedMirrored(t, h, fixture[2], syncDay.Add(3*time.Hour))
	ctx := context.Background()

	start, end := syncDay.Add(-time.Hour), syncDay.Add(24*time.Hour)
	summary, err := h.svc.ReverseSync(ctx, h.userID, &start, &end)
	require.NoError(t, err)

	assert.Equal(t, dto.SyncSummary{
		Total:           3,
		Processed:       1,
		MeetingsCreated: 1,
		MeetingsLinked:  1,
		Skipped:         2,
		SkippedInvalid:  1,
	}, *summary)

	assert.Equal(t, 1, h.meetings.created)
	var imported *meetingentity.Meeting
	for _, m := range h.meetings.meetings {
		if m.Title == "Customer demo" {
			imported = m
		}
	}
	require.NotNil(t, imported)
	assert.Equal(t, "https://acme.zoom.us/j/987", imported.MeetingLink)
	assert.Equal(t, meetingentity.PlatformZoom, imported.Platform)
	assert.Equal(t, 30, imported.DurationMinutes)

	row, err := h.calendars.GetEventByUserAndExternalID(ctx, h.userID, "zoom-1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, imported.ID, *row.MeetingID)
}

func TestReverseSyncIsIdempotent(t *testing.T) {
	h := newHarness(t, reverseFixture()...)
	ctx := context.Background()
	start, end := syncDay.Add(-time.Hour), syncDay.Add(24*time.Hour)

	first, err := h.svc.ReverseSync(ctx, h.userID, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 2, first.MeetingsCreated)

	second, err := h.svc.ReverseSync(ctx, h.userID, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 0, second.MeetingsCreated)
	assert.Equal(t, 0, second.MeetingsLinked)
	assert.Equal(t, 0, second.MeetingsUpdated)
	assert.Equal(t, 3, second.Skipped)

	assert.Equal(t, 2, h.meetings.created)
	assert.Len(t, h.calendars.activeRows(), 2)
}

func TestReverseSyncUpdatesDivergedMeeting(t *testing.T) {
	ev := &calendar.Event{Id: "teams-1", Summary: "Client call", Location: teamsLink, Start: timed(syncDay)}
	h := newHarness(t)
	m := seedMirrored(t, h, ev, syncDay)

	moved := *ev
	moved.Summary = "Client call (moved)"
	moved.Start = timed(syncDay.Add(time.Hour))
	moved.HangoutLink = "https://meet.google.com/new-link"

	integ, err := h.svc.reverse.resolver.integration(context.Background(), h.userID)
	require.NoError(t, err)
	summary := h.svc.reverse.Apply(context.Background(), integ, []*calendar.Event{&moved})

	assert.Equal(t, 1, summary.MeetingsUpdated)
	assert.Equal(t, 1, summary.Processed)

	stored, _ := h.meetings.GetMeetingByID(context.Background(), m.ID)
	assert.Equal(t, "Client call (moved)", stored.Title)
	assert.True(t, stored.StartTime.Equal(syncDay.Add(time.Hour)))
	assert.Equal(t, "https://meet.google.com/new-link", stored.MeetingLink)
	assert.Equal(t, meetingentity.PlatformGoogleMeet, stored.Platform)
}

func TestReverseSyncLinksUnlinkedMirror(t *testing.T) {
	ev := &calendar.Event{Id: "teams-1", Summary: "Client call", Location: teamsLink, Start: timed(syncDay)}
	h := newHarness(t)
	ctx := context.Background()

	integ, err := h.svc.reverse.resolver.integration(ctx, h.userID)
	require.NoError(t, err)
	row := h.calendars.put(entity.CalendarEvent{IntegrationID: integ.ID, ExternalEventID: "teams-1", StartTime: syncDay, EndTime: syncDay})

	summary := h.svc.reverse.Apply(ctx, integ, []*calendar.Event{ev})
	assert.Equal(t, dto.SyncSummary{Total: 1, Processed: 1, MeetingsLinked: 1}, *summary)

	rows := h.calendars.activeRows()
	require.Len(t, rows, 1)
	assert.Equal(t, row.ID, rows[0].ID)
	assert.True(t, rows[0].IsLinked())
}

type failingStore struct {
	*memMeetings
}

func (failingStore) CreateMeeting(context.Context, *meetingentity.Meeting) (*meetingentity.Meeting, error) {
	return nil, fmt.Errorf("insert failed")
}

func TestReverseSyncCountsFailuresAndContinues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	integ, err := h.svc.reverse.resolver.integration(ctx, h.userID)
	require.NoError(t, err)
	h.svc.reverse.meetings = failingStore{h.meetings}

	summary := h.svc.reverse.Apply(ctx, integ, []*calendar.Event{
		{Id: "a", Summary: "A", Location: teamsLink, Start: timed(syncDay)},
		{Id: "b", Summary: "B", Start: timed(syncDay)},
	})
	assert.Equal(t, dto.SyncSummary{Total: 2, Skipped: 1, SkippedNoLink: 1, Errors: 1}, *summary)
}

func TestReverseSyncReturnsListingFailure(t *testing.T) {
	h := newHarness(t)
	h.cal.listErr = errors.NewAppError(errors.ErrSyncFailed, "list events failed", nil)

	_, err := h.svc.ReverseSync(context.Background(), h.userID, nil, nil)
	assert.True(t, errors.HasCode(err, errors.ErrSyncFailed))
}

func TestReverseSyncRejectsEmptyWindow(t *testing.T) {
	h := newHarness(t)
	at := syncDay

	_, err := h.svc.ReverseSync(context.Background(), h.userID, &at, &at)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInput))
}

func TestReverseSyncIgnoresTitlePaddingAndSubsecondStart(t *testing.T) {
	ev := &calendar.Event{Id: "teams-1", Summary: "Client call", Location: teamsLink, Start: timed(syncDay)}
	h := newHarness(t, ev)
	m := seedMirrored(t, h, ev, syncDay.Add(250*time.Millisecond))
	h.meetings.meetings[m.ID].Title = "  Client call "

	integ, err := h.svc.reverse.resolver.integration(context.Background(), h.userID)
	require.NoError(t, err)
	summary := h.svc.reverse.Apply(context.Background(), integ, []*calendar.Event{ev})

	assert.Zero(t, summary.MeetingsUpdated)
	assert.Equal(t, 1, summary.Skipped)
}
