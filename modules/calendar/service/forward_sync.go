package service

import (
	"context"
	stderrors "errors"
	"time"

	"go-meeting-sync/core/cache"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/calendar/dto"
	"go-meeting-sync/modules/calendar/entity"
	"go-meeting-sync/modules/calendar/provider"
	"go-meeting-sync/modules/calendar/repository"
	meetingentity "go-meeting-sync/modules/meeting/entity"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
)

// ForwardSyncEngine pushes a meeting to the user's provider calendar and
// keeps exactly one active mirror row for it.
type ForwardSyncEngine struct {
	calendars repository.CalendarRepository
	meetings  MeetingStore
	resolver  *integrationResolver
	content   *contentLoader
	matcher   *EventMatcher
	locks     *keyLocker
}

type keyLocker struct {
	locker cache.Locker
	ttl    time.Duration
	wait   time.Duration
}

func (l *keyLocker) with(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	release, err := l.locker.Lock(ctx, key, l.ttl, l.wait)
	if stderrors.Is(err, cache.ErrLockNotAcquired) {
		return errors.NewAppError(errors.ErrSyncInProgress, "calendar sync already in progress", err)
	}
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to acquire sync lock", err)
	}
	defer release()
	return fn(ctx)
}

func meetingLockKey(meetingID uuid.UUID) string {
	return "calendar:lock:meeting:" + meetingID.String()
}

func syncResult(meetingID uuid.UUID, row *entity.CalendarEvent, status string) *dto.ForwardSyncResult {
	return &dto.ForwardSyncResult{
		MeetingID:       meetingID,
		Status:          status,
		ExternalEventID: row.ExternalEventID,
		CalendarEventID: row.ID,
		HTMLLink:        row.HTMLLink,
	}
}

// Sync creates, links, updates or recreates the provider event for a meeting.
func (e *ForwardSyncEngine) Sync(ctx context.Context, meetingID uuid.UUID) (*dto.ForwardSyncResult, error) {
	var result *dto.ForwardSyncResult
	err := e.locks.with(ctx, meetingLockKey(meetingID), func(ctx context.Context) error {
		var err error
		result, err = e.sync(ctx, meetingID)
		return err
	})
	return result, err
}

func (e *ForwardSyncEngine) loadMeeting(ctx context.Context, meetingID uuid.UUID) (*meetingentity.Meeting, error) {
	meeting, err := e.meetings.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting", err)
	}
	if meeting == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "meeting not found", nil)
	}
	return meeting, nil
}

func (e *ForwardSyncEngine) sync(ctx context.Context, meetingID uuid.UUID) (*dto.ForwardSyncResult, error) {
	meeting, err := e.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	integ, cal, err := e.resolver.clientForUser(ctx, meeting.UserID)
	if err != nil {
		return nil, err
	}

	loc := e.matcher.location(meeting)
	description := e.content.describe(ctx, meeting)

	mirror, err := e.calendars.GetEventByMeetingID(ctx, meeting.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar event", err)
	}
	if mirror != nil {
		return e.updateMirrored(ctx, cal, integ, meeting, mirror, description, loc)
	}
	return e.createOrLink(ctx, cal, integ, meeting, description, loc)
}

// updateMirrored updates the event behind mirror, recreating it when the
// provider no longer has it. The row moves to integ when it still points at
// an integration from an earlier connection.
func (e *ForwardSyncEngine) updateMirrored(
	ctx context.Context,
	cal provider.Calendar,
	integ *entity.CalendarIntegration,
	meeting *meetingentity.Meeting,
	mirror *entity.CalendarEvent,
	description string,
	loc *time.Location,
) (*dto.ForwardSyncResult, error) {
	status := dto.StatusUpdated
	ev, err := cal.UpdateEvent(ctx, mirror.ExternalEventID, buildEventBody(meeting, description, loc, false))
	if errors.HasCode(err, errors.ErrNotFound) {
		logger.Info("ForwardSync:UpdateMirrored:Recreate",
			"meeting_id", meeting.ID,
			"external_event_id", mirror.ExternalEventID,
		)
		status = dto.StatusRecreated
		ev, err = cal.CreateEvent(ctx, buildEventBody(meeting, description, loc, true))
	}
	if err != nil {
		return nil, err
	}

	applyProviderEvent(mirror, ev, meeting, loc)
	e.rehome(mirror, integ)
	if err := e.calendars.UpdateEvent(ctx, mirror); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to update calendar event", err)
	}
	e.adoptConferenceLink(ctx, meeting, ev)

	logger.Info("ForwardSync:Done", "meeting_id", meeting.ID, "status", status, "external_event_id", mirror.ExternalEventID)
	return syncResult(meeting.ID, mirror, status), nil
}

func (e *ForwardSyncEngine) createOrLink(
	ctx context.Context,
	cal provider.Calendar,
	integ *entity.CalendarIntegration,
	meeting *meetingentity.Meeting,
	description string,
	loc *time.Location,
) (*dto.ForwardSyncResult, error) {
	if result, ok, err := e.linkExisting(ctx, cal, integ, meeting, description, loc); ok {
		return result, err
	}

	created, err := cal.CreateEvent(ctx, buildEventBody(meeting, description, loc, true))
	if err != nil {
		return nil, err
	}

	row := &entity.CalendarEvent{IntegrationID: integ.ID, MeetingID: &meeting.ID}
	applyProviderEvent(row, created, meeting, loc)
	if err := e.calendars.CreateEvent(ctx, row); err != nil {
		if errors.HasCode(err, errors.ErrAlreadyExists) {
			return e.resolveConflict(ctx, cal, integ, meeting, description, loc, created.Id)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to save calendar event", err)
	}
	e.adoptConferenceLink(ctx, meeting, created)

	logger.Info("ForwardSync:Done", "meeting_id", meeting.ID, "status", dto.StatusCreatedNew, "external_event_id", row.ExternalEventID)
	return syncResult(meeting.ID, row, dto.StatusCreatedNew), nil
}

// linkExisting adopts a same-titled provider event for the meeting. ok is
// false when no usable match exists and a new event must be created.
func (e *ForwardSyncEngine) linkExisting(
	ctx context.Context,
	cal provider.Calendar,
	integ *entity.CalendarIntegration,
	meeting *meetingentity.Meeting,
	description string,
	loc *time.Location,
) (result *dto.ForwardSyncResult, ok bool, err error) {
	externalID := e.matcher.FindMatchingEvent(ctx, cal, meeting)
	if externalID == "" {
		return nil, false, nil
	}

	row, err := e.calendars.GetEventByExternalID(ctx, integ.ID, externalID)
	if err != nil {
		return nil, true, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar event", err)
	}
	if row != nil && row.IsLinked() {
		logger.Info("ForwardSync:LinkExisting:MirrorsOtherMeeting",
			"meeting_id", meeting.ID,
			"external_event_id", externalID,
			"linked_meeting_id", *row.MeetingID,
		)
		return nil, false, nil
	}

	current, err := cal.GetEvent(ctx, externalID)
	if err != nil || current == nil {
		logger.Warn("ForwardSync:LinkExisting:Fetch", "meeting_id", meeting.ID, "external_event_id", externalID, "error", err)
		return nil, false, nil
	}

	overlayEventBody(current, buildEventBody(meeting, description, loc, false))
	updated, err := cal.UpdateEvent(ctx, externalID, current)
	if err != nil {
		return nil, true, err
	}

	if row == nil {
		row = &entity.CalendarEvent{IntegrationID: integ.ID, MeetingID: &meeting.ID}
		applyProviderEvent(row, updated, meeting, loc)
		err = e.calendars.CreateEvent(ctx, row)
	} else {
		row.MeetingID = &meeting.ID
		applyProviderEvent(row, updated, meeting, loc)
		err = e.calendars.UpdateEvent(ctx, row)
	}
	if err != nil {
		if errors.HasCode(err, errors.ErrAlreadyExists) {
			result, err = e.resolveConflict(ctx, cal, integ, meeting, description, loc, "")
			return result, true, err
		}
		return nil, true, errors.NewAppError(errors.ErrInternalServer, "failed to save calendar event", err)
	}
	e.adoptConferenceLink(ctx, meeting, updated)

	logger.Info("ForwardSync:Done", "meeting_id", meeting.ID, "status", dto.StatusLinkedExisting, "external_event_id", externalID)
	return syncResult(meeting.ID, row, dto.StatusLinkedExisting), true, nil
}

// resolveConflict handles a mirror row written concurrently for the same
// meeting: the surplus provider event is removed and the winner is updated.
func (e *ForwardSyncEngine) resolveConflict(
	ctx context.Context,
	cal provider.Calendar,
	integ *entity.CalendarIntegration,
	meeting *meetingentity.Meeting,
	description string,
	loc *time.Location,
	surplusEventID string,
) (*dto.ForwardSyncResult, error) {
	winner, err := e.calendars.GetEventByMeetingID(ctx, meeting.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar event", err)
	}
	if winner == nil {
		return nil, errors.NewAppError(errors.ErrSyncFailed, "calendar event conflict could not be resolved", nil)
	}

	if surplusEventID != "" && surplusEventID != winner.ExternalEventID {
		if err := cal.DeleteEvent(ctx, surplusEventID); err != nil {
			logger.Warn("ForwardSync:ResolveConflict:DeleteSurplus", "external_event_id", surplusEventID, "error", err)
		}
	}

	logger.Info("ForwardSync:ResolveConflict:RetryAsUpdate", "meeting_id", meeting.ID, "calendar_event_id", winner.ID)
	return e.updateMirrored(ctx, cal, integ, meeting, winner, description, loc)
}

func (e *ForwardSyncEngine) rehome(mirror *entity.CalendarEvent, integ *entity.CalendarIntegration) {
	if mirror.IntegrationID == integ.ID {
		return
	}
	logger.Info("ForwardSync:Rehome",
		"calendar_event_id", mirror.ID,
		"from_integration_id", mirror.IntegrationID,
		"to_integration_id", integ.ID,
	)
	mirror.IntegrationID = integ.ID
}

// overlayEventBody writes freshly rendered fields over a fetched event,
// keeping its attendees and conference.
func overlayEventBody(dst, src *calendar.Event) {
	dst.Summary = src.Summary
	dst.Description = src.Description
	dst.Start = src.Start
	dst.End = src.End
	dst.ColorId = src.ColorId
	if src.Location != "" {
		dst.Location = src.Location
	}
	if len(src.Recurrence) > 0 {
		dst.Recurrence = src.Recurrence
	}
	for _, a := range src.Attendees {
		if !hasAttendee(dst.Attendees, a.Email) {
			dst.Attendees = append(dst.Attendees, a)
		}
	}
}

func hasAttendee(list []*calendar.EventAttendee, email string) bool {
	for _, a := range list {
		if a != nil && a.Email == email {
			return true
		}
	}
	return false
}

// adoptConferenceLink stores a provider-created conference link on a
// meeting that had none.
func (e *ForwardSyncEngine) adoptConferenceLink(ctx context.Context, meeting *meetingentity.Meeting, ev *calendar.Event) {
	if meeting.MeetingLink != "" {
		return
	}
	link, platform := ExtractMeetingLink(ev)
	if link == "" {
		return
	}
	meeting.MeetingLink = link
	meeting.Platform = platform
	if err := e.meetings.UpdateSyncedFields(ctx, meeting); err != nil {
		logger.Warn("ForwardSync:AdoptConferenceLink:Error", "meeting_id", meeting.ID, "error", err)
	}
}

// RefreshDescription re-renders the description of the meeting's mirrored
// events without touching time or location. A meeting without a mirror
// row gets a full sync instead.
func (e *ForwardSyncEngine) RefreshDescription(ctx context.Context, meetingID uuid.UUID) (*dto.ForwardSyncResult, error) {
	var result *dto.ForwardSyncResult
	err := e.locks.with(ctx, meetingLockKey(meetingID), func(ctx context.Context) error {
		mirrors, err := e.calendars.ListEventsByMeetingID(ctx, meetingID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load calendar events", err)
		}
		if len(mirrors) == 0 {
			result, err = e.sync(ctx, meetingID)
			return err
		}

		meeting, err := e.loadMeeting(ctx, meetingID)
		if err != nil {
			return err
		}
		integ, cal, err := e.resolver.clientForUser(ctx, meeting.UserID)
		if err != nil {
			return err
		}
		loc := e.matcher.location(meeting)
		description := e.content.describe(ctx, meeting)

		for i := range mirrors {
			mirror := &mirrors[i]
			current, err := cal.GetEvent(ctx, mirror.ExternalEventID)
			if err != nil {
				return err
			}
			if current == nil {
				result, err = e.updateMirrored(ctx, cal, integ, meeting, mirror, description, loc)
				if err != nil {
					return err
				}
				continue
			}

			current.Description = description
			updated, err := cal.UpdateEvent(ctx, mirror.ExternalEventID, current)
			if err != nil {
				return err
			}
			mirror.Description = updated.Description
			e.rehome(mirror, integ)
			if err := e.calendars.UpdateEvent(ctx, mirror); err != nil {
				return errors.NewAppError(errors.ErrInternalServer, "failed to update calendar event", err)
			}
			result = syncResult(meeting.ID, mirror, dto.StatusUpdated)
		}
		return nil
	})
	return result, err
}

// Delete removes the provider events behind the meeting's mirror rows and
// soft-deletes each row once its event is gone. A row whose event could not
// be removed stays linked to the deleted meeting, so reverse sync skips the
// event instead of importing it again.
func (e *ForwardSyncEngine) Delete(ctx context.Context, meetingID uuid.UUID) error {
	return e.locks.with(ctx, meetingLockKey(meetingID), func(ctx context.Context) error {
		mirrors, err := e.calendars.ListEventsByMeetingID(ctx, meetingID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load calendar events", err)
		}

		var failed error
		for i := range mirrors {
			mirror := &mirrors[i]
			if err := e.deleteProviderEvent(ctx, mirror); err != nil {
				logger.Warn("ForwardSync:Delete:Provider",
					"calendar_event_id", mirror.ID,
					"external_event_id", mirror.ExternalEventID,
					"error", err,
				)
				failed = err
				continue
			}
			if err := e.calendars.SoftDeleteEvent(ctx, mirror.ID); err != nil {
				return errors.NewAppError(errors.ErrInternalServer, "failed to delete calendar event", err)
			}
		}
		if failed != nil {
			return errors.NewAppError(errors.ErrSyncFailed, "failed to delete calendar event from provider", failed)
		}
		logger.Info("ForwardSync:Delete:Done", "meeting_id", meetingID, "mirrors", len(mirrors))
		return nil
	})
}

// deleteProviderEvent deletes mirror's event through the owner's active
// integration, which may be newer than the one the row was written with.
func (e *ForwardSyncEngine) deleteProviderEvent(ctx context.Context, mirror *entity.CalendarEvent) error {
	integ, err := e.calendars.GetIntegrationByID(ctx, mirror.IntegrationID)
	if err != nil {
		return err
	}
	if integ == nil {
		return errors.NewAppError(errors.ErrNotFound, "calendar integration not found", nil)
	}
	if integ.IsDeleted {
		integ, err = e.calendars.GetIntegration(ctx, integ.UserID, integ.Provider)
		if err != nil {
			return err
		}
		if integ == nil {
			return errors.NewAppError(errors.ErrNotFound, "calendar not connected", nil)
		}
	}

	cal, err := e.resolver.client(ctx, integ)
	if err != nil {
		return err
	}
	return cal.DeleteEvent(ctx, mirror.ExternalEventID)
}
