package domain

import (
	"bytes"
	"encoding/json"
)

const (
	IconMedication = "pills"
	IconInfo       = "info-circle"
)

// Notification is a notification record as served by the backend, both from
// the REST endpoints and the WebSocket channel.
type Notification struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Message            string          `json:"message"`
	CreatedAt          Timestamp       `json:"createdAt"`
	Read               bool            `json:"read"`
	MedicationRequest  json.RawMessage `json:"medicationRequest,omitempty"`
	MedicationSchedule json.RawMessage `json:"medicationSchedule,omitempty"`
	VaccinationFormID  json.RawMessage `json:"vaccinationFormId,omitempty"`
	Confirm            *bool           `json:"confirm,omitempty"`
}

// HasMedication reports whether the record is tied to a medication request
// or schedule.
func (n Notification) HasMedication() bool {
	return present(n.MedicationRequest) || present(n.MedicationSchedule)
}

// Icon is the view icon key for the record.
func (n Notification) Icon() string {
	if n.HasMedication() {
		return IconMedication
	}
	return IconInfo
}

// present treats JSON null, false, 0 and "" as absent.
func present(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", "0", `""`:
		return false
	}
	return true
}

// NotificationView is the display shape of a notification.
type NotificationView struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Time  string `json:"time"`
	Date  string `json:"date"`
	Icon  string `json:"icon"`
	Read  bool   `json:"read"`
}

// Feed is a page of notification views plus the unread badge count.
type Feed struct {
	Notifications []NotificationView `json:"notifications"`
	UnreadCount   int                `json:"unreadCount"`
}

// BulkReadResult reports the per-item outcome of a bulk mark-as-read.
type BulkReadResult struct {
	Marked []int64
	Failed map[int64]error
}

// Complete reports whether every requested item was marked.
func (r BulkReadResult) Complete() bool {
	return len(r.Failed) == 0
}
