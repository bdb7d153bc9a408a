package models

import (
	"fmt"
	"strings"
	"time"
)

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ComposeTimestamp joins a date and an optional time of day into the local ISO-8601
// form the inventory backend expects. It returns "" when no date is given so the field
// can be left out of the request body.
func ComposeTimestamp(datePart, timePart string) string {
	datePart = strings.TrimSpace(datePart)
	timePart = strings.TrimSpace(timePart)

	if datePart == "" {
		return ""
	}
	// Already a full timestamp; appending a time would produce the doubled-T shape.
	if strings.Contains(datePart, "T") {
		return datePart
	}
	if timePart == "" {
		return datePart + "T00:00:00"
	}
	if strings.Count(timePart, ":") >= 2 {
		return datePart + "T" + timePart
	}
	return datePart + "T" + timePart + ":00"
}

// RepairTimestamp collapses the doubled "dateTtimeTtime" shape some backend rows carry
// into "dateTtime", keeping the last time segment. repaired reports whether it changed raw.
func RepairTimestamp(raw string) (fixed string, repaired bool) {
	parts := strings.Split(raw, "T")
	if len(parts) <= 2 {
		return raw, false
	}
	return parts[0] + "T" + parts[len(parts)-1], true
}

// ParseBatchTimestamp reads a batch date as sent by the backend. Zone-less values are
// interpreted in loc. The doubled-T shape is repaired first.
func ParseBatchTimestamp(raw string, loc *time.Location) (t time.Time, repaired bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.Local
	}

	raw, repaired = RepairTimestamp(raw)

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, repaired, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, repaired, nil
		}
	}
	return time.Time{}, repaired, fmt.Errorf("unrecognized timestamp %q", raw)
}
