package calendarsync

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const icsTimestampFmt = "20060102T150405Z"

// BuildICSDataURL generates a self-contained ICS file for the event and
// encodes it as a data: URL. Apple calendar links are served this way; there
// is no server-side event and nothing to delete remotely.
func BuildICSDataURL(uid string, payload EventPayload, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Barbridge//Scheduling//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICS(uid),
		"DTSTAMP:" + now.UTC().Format(icsTimestampFmt),
		"DTSTART:" + payload.Start.UTC().Format(icsTimestampFmt),
		"DTEND:" + payload.End.UTC().Format(icsTimestampFmt),
		"SUMMARY:" + escapeICS(payload.Summary),
	}
	if payload.Description != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICS(payload.Description))
	}
	if payload.Location != "" {
		lines = append(lines, "LOCATION:"+escapeICS(payload.Location))
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	encoded := base64.StdEncoding.EncodeToString([]byte(strings.Join(lines, "\r\n") + "\r\n"))
	return fmt.Sprintf("data:text/calendar;base64,%s", encoded)
}

func escapeICS(value string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
		"\r", "",
	)
	return replacer.Replace(value)
}
