package service

import (
	"bytes"
	"fmt"
	"time"

	"go-meeting-sync/modules/calendar/entity"

	"github.com/emersion/go-ical"
)

const icsProductID = "-//meeting-sync//calendar feed//EN"

// EncodeICS renders mirrored events as an iCalendar feed.
func EncodeICS(events []entity.CalendarEvent, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	for i := range events {
		cal.Children = append(cal.Children, toVEvent(&events[i], stamp))
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode ics: %w", err)
	}
	return buf.Bytes(), nil
}

func toVEvent(ev *entity.CalendarEvent, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, ev.ExternalEventID+"@meeting-sync")
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.StartTime.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.EndTime.UTC())

	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.HTMLLink != "" {
		p := ical.NewProp(ical.PropURL)
		p.SetValueType(ical.ValueURI)
		p.Value = ev.HTMLLink
		ve.Props.Set(p)
	}
	return ve
}
