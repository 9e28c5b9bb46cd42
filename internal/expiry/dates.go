// Package expiry implements calendar-date normalization and expiry
// classification for product validity dates. All calculations are pure
// and deterministic for a fixed reference time.
package expiry

import (
	"time"

	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

// Layouts accepted by ParseDate, tried in order.
var parseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ToUTCMidnight returns midnight UTC on the calendar day of t, with the
// year, month and day taken from t's own location. Storing validity dates
// this way keeps calendar-day comparisons free of time-of-day and
// timezone drift.
func ToUTCMidnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// InZone reinterprets a stored instant in the named zone for display.
// The underlying instant is not changed.
func InZone(t time.Time, timeZone string) (time.Time, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return time.Time{}, errors.BadRequest("unknown time zone: " + timeZone)
	}
	return t.In(loc), nil
}

// Format renders t using a fixed UTC interpretation so that stored
// calendar dates never shift by a day depending on the server's local
// timezone.
func Format(t time.Time, layout string) string {
	return t.UTC().Format(layout)
}

// ParseDate parses an ISO-8601 date or timestamp string. Unparseable
// input fails with an invalid-date error; it is never coerced to the
// current time.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.InvalidDate(value)
}
