// Package ical renders a coach's assigned sessions as an iCalendar feed.
package ical

import (
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//SquashSync//Coach Schedule//EN"

type Event struct {
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Location    string
	Description string
}

// Render serialises events into a published calendar. stamp is written as
// DTSTAMP on every event so repeated fetches of unchanged data are identical.
func Render(name string, events []Event, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	for _, e := range events {
		ev := cal.AddEvent(e.UID)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(e.Start)
		ev.SetEndAt(e.End)
		ev.SetSummary(e.Summary)
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
	}

	return cal.Serialize()
}
