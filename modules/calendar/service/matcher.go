package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/calendar/provider"
	meetingentity "go-meeting-sync/modules/meeting/entity"

	"google.golang.org/api/calendar/v3"
)

const statusCancelled = "cancelled"

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// EventMatcher finds provider events that already represent a meeting.
type EventMatcher struct {
	defaultLoc *time.Location
	now        func() time.Time
}

// NewEventMatcher falls back to time.Local when defaultTimezone is empty
// or unknown.
func NewEventMatcher(defaultTimezone string) *EventMatcher {
	loc := time.Local
	if defaultTimezone != "" {
		if l, err := time.LoadLocation(defaultTimezone); err == nil {
			loc = l
		} else {
			logger.Warn("EventMatcher:UnknownTimezone", "timezone", defaultTimezone)
		}
	}
	return &EventMatcher{defaultLoc: loc, now: time.Now}
}

func (m *EventMatcher) location(meeting *meetingentity.Meeting) *time.Location {
	if meeting.Timezone != "" {
		if loc, err := time.LoadLocation(meeting.Timezone); err == nil {
			return loc
		}
	}
	return m.defaultLoc
}

// FindMatchingEvent returns the id of a non-cancelled provider event whose
// title equals the meeting title ignoring case, or "" when there is none.
// It searches the meeting's calendar day first; if that listing fails it
// searches the next seven days instead. Provider errors never surface.
func (m *EventMatcher) FindMatchingEvent(ctx context.Context, cal provider.Calendar, meeting *meetingentity.Meeting) string {
	loc := m.location(meeting)
	local := meeting.StartTime.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	items, err := cal.ListEvents(ctx, dayStart, dayEnd, 0)
	if err != nil {
		logger.Warn("EventMatcher:FindMatchingEvent:DayListFailed", "meeting_id", meeting.ID, "error", err)

		now := m.now()
		items, err = cal.ListEvents(ctx, now, now.Add(constants.ForwardMatchFallbackWindow), constants.ForwardMatchMaxResults)
		if err != nil {
			logger.Warn("EventMatcher:FindMatchingEvent:FallbackListFailed", "meeting_id", meeting.ID, "error", err)
			return ""
		}
	}

	return matchTitle(items, meeting.Title)
}

func matchTitle(items []*calendar.Event, title string) string {
	want := strings.TrimSpace(title)
	if want == "" {
		return ""
	}
	for _, ev := range items {
		if ev == nil || ev.Status == statusCancelled || ev.Id == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(ev.Summary), want) {
			return ev.Id
		}
	}
	return ""
}

// ExtractMeetingLink looks at the conferencing link, then the conference
// entry points (video first), then the first URL in the location.
func ExtractMeetingLink(ev *calendar.Event) (link, platform string) {
	if ev == nil {
		return "", ""
	}
	if ev.HangoutLink != "" {
		return ev.HangoutLink, ClassifyPlatform(ev.HangoutLink)
	}
	if ev.ConferenceData != nil {
		var fallback string
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep == nil || ep.Uri == "" {
				continue
			}
			if ep.EntryPointType == "video" {
				return ep.Uri, ClassifyPlatform(ep.Uri)
			}
			if fallback == "" && strings.HasPrefix(ep.Uri, "http") {
				fallback = ep.Uri
			}
		}
		if fallback != "" {
			return fallback, ClassifyPlatform(fallback)
		}
	}
	if url := urlPattern.FindString(ev.Location); url != "" {
		return url, ClassifyPlatform(url)
	}
	return "", ""
}

func ClassifyPlatform(link string) string {
	l := strings.ToLower(link)
	switch {
	case strings.Contains(l, "zoom.us") || strings.Contains(l, "zoom.com"):
		return meetingentity.PlatformZoom
	case strings.Contains(l, "meet.google.com"):
		return meetingentity.PlatformGoogleMeet
	case strings.Contains(l, "teams.microsoft.com") || strings.Contains(l, "teams.live.com"):
		return meetingentity.PlatformMicrosoftTeams
	case strings.Contains(l, "webex.com"):
		return meetingentity.PlatformWebex
	default:
		return meetingentity.PlatformOther
	}
}

// IsValidForReverseSync requires an id, a title, a start or end time and a
// status other than cancelled.
func IsValidForReverseSync(ev *calendar.Event) bool {
	if ev == nil || ev.Id == "" || strings.TrimSpace(ev.Summary) == "" {
		return false
	}
	if ev.Status == statusCancelled {
		return false
	}
	return hasTime(ev.Start) || hasTime(ev.End)
}

func hasTime(dt *calendar.EventDateTime) bool {
	return dt != nil && (dt.DateTime != "" || dt.Date != "")
}

// parseEventTime reads a timed or all-day value. All-day dates are placed
// at midnight in loc.
func parseEventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	if dt.Date != "" {
		if dt.TimeZone != "" {
			if l, err := time.LoadLocation(dt.TimeZone); err == nil {
				loc = l
			}
		}
		t, err := time.ParseInLocation("2006-01-02", dt.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
