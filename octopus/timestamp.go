package octopus

import (
	"time"

	"github.com/pkg/errors"
)

// floating is the location given to timestamps that were read without a UTC
// offset. They are treated as UTC but format back without an offset.
var floating = time.FixedZone("", 0)

// timestampLayouts cover the extended and basic ISO-8601 forms, with a T or
// a space between date and time and offsets as Z, ±hh:mm, ±hhmm or ±hh.
// Fractional seconds are accepted by time.Parse without a layout element.
var timestampLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339, true},
	{"2006-01-02T15:04:05Z0700", true},
	{"2006-01-02T15:04:05Z07", true},
	{"2006-01-02 15:04:05Z07:00", true},
	{"2006-01-02 15:04:05Z0700", true},
	{"2006-01-02 15:04:05Z07", true},
	{"20060102T150405Z07:00", true},
	{"20060102T150405Z0700", true},
	{"20060102T150405Z07", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04", false},
	{"20060102T150405", false},
	{"2006-01-02", false},
	{"20060102", false},
}

// FormatTimestamp formats t the way the Octopus API expects it: ISO-8601,
// whole seconds, keeping the offset of t. The zero time formats as "".
// Offsets are written to the minute; seconds of an offset are dropped.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Truncate(time.Second)
	switch t.Location() {
	case floating:
		return t.Format("2006-01-02T15:04:05")
	case time.UTC:
		return t.Format(time.RFC3339)
	}
	return t.Format("2006-01-02T15:04:05-07:00")
}

// ParseTimestamp parses an ISO-8601 timestamp. The parsed offset is kept, the
// result is not normalised to UTC. An empty string parses to the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, l := range timestampLayouts {
		if !l.zoned {
			if t, err := time.ParseInLocation(l.layout, s, floating); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.Parse(l.layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrInvalidField, "timestamp %q", s)
}

func parseOptionalTimestamp(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
