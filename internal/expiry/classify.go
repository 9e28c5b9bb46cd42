package expiry

import (
	"math"
	"time"
)

// Status is the derived expiry state of a validity date. It is
// recomputed on every read and never persisted.
type Status string

const (
	StatusValid    Status = "VALID"
	StatusExpiring Status = "EXPIRING"
	StatusExpired  Status = "EXPIRED"
)

// DefaultThresholdDays is the number of days before expiry at which a
// product is flagged as expiring soon.
const DefaultThresholdDays = 30

const millisPerDay = 24 * 60 * 60 * 1000

// MessageKey returns the i18n key for the status display label.
func (s Status) MessageKey() string {
	switch s {
	case StatusExpired:
		return "expiry.expired"
	case StatusExpiring:
		return "expiry.expiring"
	default:
		return "expiry.valid"
	}
}

// Options controls classification. The zero value of AsOf means the
// current wall-clock time; tests must pass AsOf explicitly.
type Options struct {
	AsOf          time.Time
	ThresholdDays int
	DateOnly      bool
}

// DefaultOptions returns Options with the default threshold.
func DefaultOptions() Options {
	return Options{ThresholdDays: DefaultThresholdDays}
}

// Result is the outcome of a classification. Exactly one of the three
// boolean flags is true.
type Result struct {
	Status          Status `json:"status"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	IsExpired       bool   `json:"is_expired"`
	IsExpiring      bool   `json:"is_expiring"`
	IsValid         bool   `json:"is_valid"`
}

// ClassifyDate parses an ISO-8601 validity date and classifies it.
// Unparseable input fails with an invalid-date error.
func ClassifyDate(value string, opts Options) (Result, error) {
	validity, err := ParseDate(value)
	if err != nil {
		return Result{}, err
	}
	return Classify(validity, opts), nil
}

// Classify maps a validity date to its expiry status relative to
// opts.AsOf. Days remaining is the ceiling of the millisecond difference
// over a day, so a date partially in the past still counts as zero days,
// and zero days is already expired. The threshold comparison is
// inclusive: exactly ThresholdDays remaining is expiring, not valid.
func Classify(validity time.Time, opts Options) Result {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	// Both sides go through the same UTC-midnight representation so a
	// wall-clock asOf in a non-UTC zone cannot drift the calendar-day
	// difference by its offset.
	if opts.DateOnly {
		validity = ToUTCMidnight(validity)
		asOf = ToUTCMidnight(asOf)
	}

	diff := validity.Sub(asOf)
	days := int(math.Ceil(float64(diff.Milliseconds()) / float64(millisPerDay)))

	var status Status
	switch {
	case days <= 0:
		status = StatusExpired
	case days <= opts.ThresholdDays:
		status = StatusExpiring
	default:
		status = StatusValid
	}

	return Result{
		Status:          status,
		DaysUntilExpiry: days,
		IsExpired:       status == StatusExpired,
		IsExpiring:      status == StatusExpiring,
		IsValid:         status == StatusValid,
	}
}
