package format

import (
	"fmt"
	"time"
)

const JustNow = "Vừa xong"

const day = 24 * time.Hour

// TimeAgo renders the time elapsed between t and now as a relative
// Vietnamese phrase. Timestamps in the future render JustNow, never a
// negative duration; a zero t renders Unknown.
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return Unknown
	}
	elapsed := now.Sub(t)
	switch {
	case elapsed < time.Minute:
		return JustNow
	case elapsed < time.Hour:
		return fmt.Sprintf("%d phút trước", int(elapsed/time.Minute))
	case elapsed < day:
		return fmt.Sprintf("%d giờ trước", int(elapsed/time.Hour))
	}

	days := int(elapsed / day)
	switch {
	case days < 7:
		return fmt.Sprintf("%d ngày trước", days)
	case days < 30:
		return fmt.Sprintf("%d tuần trước", days/7)
	case days < 365:
		return fmt.Sprintf("%d tháng trước", days/30)
	default:
		return fmt.Sprintf("%d năm trước", days/365)
	}
}
