package service

import (
	"fmt"
	"hash/fnv"
	"strings"

	meetingentity "go-meeting-sync/modules/meeting/entity"

	"github.com/gosimple/slug"
	"github.com/teambition/rrule-go"
)

const paletteSize = 11

var priorityColors = map[string]string{
	"urgent":   "11",
	"critical": "11",
	"high":     "11",
	"medium":   "5",
	"normal":   "5",
	"low":      "2",
}

// keyed by slug of the meeting type
var meetingTypeColors = map[string]string{
	"standup":    "7",
	"stand-up":   "7",
	"daily":      "7",
	"one-on-one": "3",
	"1-on-1":     "3",
	"1-1":        "3",
	"interview":  "6",
	"client":     "10",
	"sales":      "10",
	"review":     "4",
	"retro":      "4",
	"planning":   "1",
	"training":   "8",
	"workshop":   "8",
	"all-hands":  "9",
	"town-hall":  "9",
}

var platformColors = map[string]string{
	meetingentity.PlatformZoom:           "9",
	meetingentity.PlatformGoogleMeet:     "10",
	meetingentity.PlatformMicrosoftTeams: "3",
	meetingentity.PlatformWebex:          "7",
}

const recurringColor = "8"

// ColorFor picks a provider color id ("1".."11") from meeting metadata.
// Priority wins over meeting type, then platform, then the recurring flag.
// Without any of those the meeting id is hashed into the palette.
func ColorFor(m *meetingentity.Meeting) string {
	if c, ok := priorityColors[strings.ToLower(strings.TrimSpace(m.Priority))]; ok {
		return c
	}
	if m.MeetingType != "" {
		if c, ok := meetingTypeColors[slug.Make(m.MeetingType)]; ok {
			return c
		}
	}
	platform := m.Platform
	if platform == "" && m.MeetingLink != "" {
		platform = ClassifyPlatform(m.MeetingLink)
	}
	if c, ok := platformColors[platform]; ok {
		return c
	}
	if m.IsRecurring {
		return recurringColor
	}

	h := fnv.New32a()
	h.Write([]byte(m.ID.String()))
	return fmt.Sprintf("%d", h.Sum32()%paletteSize+1)
}

// weeklyRecurrence is the fixed rule attached to recurring meetings.
func weeklyRecurrence() []string {
	opt := rrule.ROption{Freq: rrule.WEEKLY, Count: 10}
	return []string{"RRULE:" + opt.RRuleString()}
}
