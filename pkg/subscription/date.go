package subscription

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate converts a time.Time, *time.Time, date string or Unix
// millisecond number into a time. It returns nil for unset values and for
// anything that does not yield a finite timestamp.
func ParseDate(value any) *time.Time {
	if isAbsent(value) {
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		return &v
	case *time.Time:
		t := *v
		return &t
	case string:
		return parseDateString(v)
	case *string:
		return parseDateString(*v)
	case json.Number:
		if ms, err := v.Int64(); err == nil {
			return fromMillis(float64(ms))
		}
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return fromMillis(f)
	case int:
		return fromMillis(float64(v))
	case int64:
		return fromMillis(float64(v))
	case int32:
		return fromMillis(float64(v))
	case uint64:
		return fromMillis(float64(v))
	case float64:
		return fromMillis(v)
	case float32:
		return fromMillis(float64(v))
	default:
		return nil
	}
}

func parseDateString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// fromMillis bounds ms to the range JavaScript dates accept.
func fromMillis(ms float64) *time.Time {
	const maxMillis = 8.64e15
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxMillis {
		return nil
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return &t
}

func isAbsent(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case *time.Time:
		return v == nil || v.IsZero()
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	case time.Time:
		return v.IsZero()
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
