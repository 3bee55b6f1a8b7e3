package domain

import (
	"encoding/json"
	"time"

	"github.com/schoolhealth/notification-sync/internal/core/format"
)

// Timestamp accepts the date encodings the backend emits: ISO strings and
// Java LocalDateTime arrays. An unparsable or null value leaves it zero.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if parsed, ok := format.ParseDate(v); ok {
		t.Time = parsed
	} else {
		t.Time = time.Time{}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
