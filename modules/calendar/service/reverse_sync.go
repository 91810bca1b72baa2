package service

import (
	"context"
	"strings"
	"time"

	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/calendar/dto"
	"go-meeting-sync/modules/calendar/entity"
	"go-meeting-sync/modules/calendar/repository"
	meetingentity "go-meeting-sync/modules/meeting/entity"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
)

// Imported events without an end time get this duration.
const importedEventDuration = 30 * time.Minute

type outcome int

const (
	outcomeSkippedInvalid outcome = iota
	outcomeSkippedNoLink
	outcomeSkipped
	outcomeLinked
	outcomeCreated
	outcomeUpdated
)

// ReverseSyncEngine imports provider events that carry a meeting link.
type ReverseSyncEngine struct {
	calendars repository.CalendarRepository
	meetings  MeetingStore
	resolver  *integrationResolver
	matcher   *EventMatcher
	locks     *keyLocker
	tx        Transactor
}

func eventLockKey(integrationID uuid.UUID, externalID string) string {
	return "calendar:lock:event:" + integrationID.String() + ":" + externalID
}

// Run lists the user's provider events in [start, end) and imports them.
func (e *ReverseSyncEngine) Run(ctx context.Context, userID uuid.UUID, start, end time.Time) (*dto.SyncSummary, error) {
	integ, cal, err := e.resolver.clientForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := cal.ListEvents(ctx, start, end, constants.ReverseSyncMaxResults)
	if err != nil {
		logger.Warn("ReverseSync:Run:ListEvents", "user_id", userID, "error", err)
		return nil, err
	}

	summary := e.Apply(ctx, integ, items)
	logger.Info("ReverseSync:Run:Done",
		"user_id", userID,
		"total", summary.Total,
		"processed", summary.Processed,
		"created", summary.MeetingsCreated,
		"updated", summary.MeetingsUpdated,
		"linked", summary.MeetingsLinked,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
	)
	return summary, nil
}

// Apply processes one batch of raw provider events for integ. A failing
// event is counted in Errors and does not stop the batch.
func (e *ReverseSyncEngine) Apply(ctx context.Context, integ *entity.CalendarIntegration, items []*calendar.Event) *dto.SyncSummary {
	summary := &dto.SyncSummary{Total: len(items)}

	for _, ev := range items {
		out, err := e.processEvent(ctx, integ, ev)
		if err != nil {
			summary.Errors++
			logger.Error("ReverseSync:Apply:EventFailed", "external_event_id", ev.Id, "error", err)
			continue
		}

		switch out {
		case outcomeSkippedInvalid:
			summary.Skipped++
			summary.SkippedInvalid++
		case outcomeSkippedNoLink:
			summary.Skipped++
			summary.SkippedNoLink++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeLinked:
			summary.Processed++
			summary.MeetingsLinked++
		case outcomeCreated:
			summary.Processed++
			summary.MeetingsCreated++
			summary.MeetingsLinked++
		case outcomeUpdated:
			summary.Processed++
			summary.MeetingsUpdated++
		}
	}
	return summary
}

func (e *ReverseSyncEngine) processEvent(ctx context.Context, integ *entity.CalendarIntegration, ev *calendar.Event) (outcome, error) {
	if !IsValidForReverseSync(ev) {
		return outcomeSkippedInvalid, nil
	}
	link, platform := ExtractMeetingLink(ev)
	if link == "" {
		return outcomeSkippedNoLink, nil
	}

	var out outcome
	err := e.locks.with(ctx, eventLockKey(integ.ID, ev.Id), func(ctx context.Context) error {
		mirror, err := e.calendars.GetEventByUserAndExternalID(ctx, integ.UserID, ev.Id)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load calendar event", err)
		}

		switch {
		case mirror == nil:
			out = outcomeCreated
			return e.importEvent(ctx, integ, nil, ev, link, platform)
		case !mirror.IsLinked():
			out = outcomeLinked
			return e.importEvent(ctx, integ, mirror, ev, link, platform)
		default:
			out, err = e.refreshLinked(ctx, integ, mirror, ev, link, platform)
			return err
		}
	})
	return out, err
}

// importEvent creates a meeting from ev and links it to the mirror row,
// creating the row first when mirror is nil.
func (e *ReverseSyncEngine) importEvent(
	ctx context.Context,
	integ *entity.CalendarIntegration,
	mirror *entity.CalendarEvent,
	ev *calendar.Event,
	link, platform string,
) error {
	loc := e.matcher.defaultLoc
	return e.tx.WithinTx(ctx, func(ctx context.Context) error {
		meeting, err := e.meetings.CreateMeeting(ctx, meetingFromEvent(integ.UserID, ev, link, platform, loc))
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to create meeting", err)
		}

		if mirror == nil {
			mirror = &entity.CalendarEvent{IntegrationID: integ.ID}
			applyProviderEvent(mirror, ev, meeting, loc)
			if err := e.calendars.CreateEvent(ctx, mirror); err != nil {
				return err
			}
		}

		if err := e.calendars.LinkMeeting(ctx, mirror.ID, meeting.ID); err != nil {
			return err
		}
		logger.Info("ReverseSync:Import", "external_event_id", ev.Id, "meeting_id", meeting.ID, "calendar_event_id", mirror.ID)
		return nil
	})
}

// refreshLinked copies link, title, start and platform from ev onto the
// linked meeting when any of them differ. Titles compare trimmed and start
// times at the provider's second precision.
func (e *ReverseSyncEngine) refreshLinked(
	ctx context.Context,
	integ *entity.CalendarIntegration,
	mirror *entity.CalendarEvent,
	ev *calendar.Event,
	link, platform string,
) (outcome, error) {
	meeting, err := e.meetings.GetMeetingByID(ctx, *mirror.MeetingID)
	if err != nil {
		return outcomeSkipped, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting", err)
	}
	if meeting == nil {
		return outcomeSkipped, nil
	}

	loc := e.matcher.location(meeting)
	start, _ := eventWindow(ev, loc)
	title := strings.TrimSpace(ev.Summary)

	if meeting.MeetingLink == link &&
		strings.TrimSpace(meeting.Title) == title &&
		sameSecond(meeting.StartTime, start) &&
		meeting.Platform == platform {
		return outcomeSkipped, nil
	}

	meeting.MeetingLink = link
	meeting.Title = title
	meeting.StartTime = start
	meeting.Platform = platform

	err = e.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := e.meetings.UpdateSyncedFields(ctx, meeting); err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to update meeting", err)
		}
		applyProviderEvent(mirror, ev, meeting, loc)
		mirror.IntegrationID = integ.ID
		return e.calendars.UpdateEvent(ctx, mirror)
	})
	if err != nil {
		return outcomeSkipped, err
	}
	logger.Info("ReverseSync:UpdateMeeting", "external_event_id", ev.Id, "meeting_id", meeting.ID)
	return outcomeUpdated, nil
}

func sameSecond(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

// eventWindow reads the event's start and end, deriving a missing side
// from the other.
func eventWindow(ev *calendar.Event, loc *time.Location) (time.Time, time.Time) {
	start, hasStart := parseEventTime(ev.Start, loc)
	end, hasEnd := parseEventTime(ev.End, loc)
	switch {
	case hasStart && !hasEnd:
		end = start.Add(importedEventDuration)
	case !hasStart && hasEnd:
		start = end.Add(-importedEventDuration)
	}
	return start, end
}

func meetingFromEvent(userID uuid.UUID, ev *calendar.Event, link, platform string, loc *time.Location) *meetingentity.Meeting {
	start, end := eventWindow(ev, loc)
	duration := int(end.Sub(start) / time.Minute)
	if duration <= 0 {
		duration = meetingentity.DefaultDurationMinutes
	}

	m := &meetingentity.Meeting{
		UserID:          userID,
		Title:           strings.TrimSpace(ev.Summary),
		Description:     ev.Description,
		StartTime:       start,
		DurationMinutes: duration,
		MeetingLink:     link,
		Platform:        platform,
		Location:        ev.Location,
		IsRecurring:     ev.RecurringEventId != "" || len(ev.Recurrence) > 0,
	}
	if ev.Start != nil {
		m.Timezone = ev.Start.TimeZone
	}
	if ev.Organizer != nil {
		m.OrganizerName = ev.Organizer.DisplayName
		m.OrganizerEmail = ev.Organizer.Email
	}
	return m
}
