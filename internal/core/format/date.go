// Package format holds the pure text and date helpers the notification views
// are rendered with. Output strings are Vietnamese, as shown to end users.
package format

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

const (
	Unknown     = "Không xác định"
	InvalidDate = "Ngày không hợp lệ"

	displayLayout = "02/01/2006 15:04"
)

// localLayouts are tried, in order, for strings without a zone offset. They
// are interpreted in time.Local, like the Java LocalDateTime they come from.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate converts an ISO string, a time.Time or a Java-style
// [y, m, d, h, mi, s, ns] array (3 to 7 elements, 1-based month) into a
// time. It never panics; ok is false for anything it cannot read.
func ParseDate(v any) (t time.Time, ok bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case string:
		return parseString(x)
	case []int:
		parts := make([]int64, len(x))
		for i, p := range x {
			parts[i] = int64(p)
		}
		return fromParts(parts)
	case []int64:
		return fromParts(x)
	case []float64:
		parts := make([]int64, 0, len(x))
		for _, p := range x {
			n, ok := integral(p)
			if !ok {
				return time.Time{}, false
			}
			parts = append(parts, n)
		}
		return fromParts(parts)
	case []any:
		parts := make([]int64, 0, len(x))
		for _, p := range x {
			n, ok := toInt(p)
			if !ok {
				return time.Time{}, false
			}
			parts = append(parts, n)
		}
		return fromParts(parts)
	default:
		return time.Time{}, false
	}
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromParts(p []int64) (time.Time, bool) {
	if len(p) < 3 || len(p) > 7 {
		return time.Time{}, false
	}
	full := make([]int64, 7)
	copy(full, p)
	y, mo, d, h, mi, s, ns := full[0], full[1], full[2], full[3], full[4], full[5], full[6]
	if mo < 1 || mo > 12 || d < 1 || d > 31 || h < 0 || h > 23 ||
		mi < 0 || mi > 59 || s < 0 || s > 59 || ns < 0 || ns > 999_999_999 {
		return time.Time{}, false
	}
	t := time.Date(int(y), time.Month(mo), int(d), int(h), int(mi), int(s), int(ns), time.Local)
	// time.Date normalises 31 February into March; reject it instead.
	if t.Day() != int(d) {
		return time.Time{}, false
	}
	return t, true
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return integral(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// FormatDate renders v as dd/mm/yyyy HH:MM in local time. A missing value
// renders Unknown and an unreadable one InvalidDate.
func FormatDate(v any) string {
	if v == nil {
		return Unknown
	}
	if t, isTime := v.(time.Time); isTime && t.IsZero() {
		return Unknown
	}
	t, ok := ParseDate(v)
	if !ok {
		return InvalidDate
	}
	return t.In(time.Local).Format(displayLayout)
}
