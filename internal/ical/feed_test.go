package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	start := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	stamp := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)

	out := Render("Coaching", []Event{
		{UID: "session_1@squashsync.com", Start: start, End: start.Add(time.Hour), Summary: "U13 Squad", Location: "Berea"},
		{UID: "session_2@squashsync.com", Start: start.AddDate(0, 0, 1), End: start.AddDate(0, 0, 1).Add(time.Hour), Summary: "CANCELLED: U15"},
	}, stamp)

	require.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	require.Contains(t, out, "X-WR-CALNAME:Coaching")
	require.Contains(t, out, "UID:session_1@squashsync.com")
	require.Contains(t, out, "UID:session_2@squashsync.com")
	require.Contains(t, out, "SUMMARY:U13 Squad")
	require.Contains(t, out, "SUMMARY:CANCELLED: U15")
	require.Contains(t, out, "LOCATION:Berea")
	require.Contains(t, out, "DTSTART:20260202T080000Z")
	require.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}

func TestRender_Stable(t *testing.T) {
	start := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	stamp := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	events := []Event{{UID: "session_1@squashsync.com", Start: start, End: start.Add(time.Hour), Summary: "U13"}}

	require.Equal(t, Render("Coaching", events, stamp), Render("Coaching", events, stamp))
}
