// Package shared holds small helpers used across report and document modules.
package shared

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	// ISODate is the wire format used internally for all report dates.
	ISODate = "2006-01-02"
	// DisplayDate is the manually typed format accepted from users.
	DisplayDate = "02-01-2006"
)

var displayDatePattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// Date parsing errors.
var (
	ErrInvalidDate      = errors.New("shared: invalid date")
	ErrInvalidDateRange = errors.New("shared: from date cannot be later than to date")
)

// ParseDate accepts either the native ISO form (YYYY-MM-DD) or a manually
// typed DD-MM-YYYY string. Manually typed dates are validated with a regex and
// a round-trip check so that e.g. 31-02-2024 is rejected instead of being
// normalised by the time package.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(ISODate, value); err == nil {
		return t, nil
	}
	if !displayDatePattern.MatchString(value) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	t, err := time.Parse(DisplayDate, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	if t.Format(DisplayDate) != value {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// FormatDisplay renders a date back in the DD-MM-YYYY form shown to users.
func FormatDisplay(t time.Time) string {
	return t.Format(DisplayDate)
}

// DateRange is an inclusive report period.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange parses and validates a report period from raw inputs.
func NewDateRange(from, to string) (DateRange, error) {
	f, err := ParseDate(from)
	if err != nil {
		return DateRange{}, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return DateRange{}, err
	}
	if f.After(t) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{From: f, To: t}, nil
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Key returns a stable cache-key fragment for the range.
func (r DateRange) Key() string {
	return r.From.Format(ISODate) + ":" + r.To.Format(ISODate)
}
