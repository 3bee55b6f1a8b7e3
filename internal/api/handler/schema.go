package handler

import (
	"time"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,notblank,max=128"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	ID        string       `json:"id"`
	User      userResponse `json:"user"`
	Staff     bool         `json:"staff"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

type notificationResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Time  string `json:"time"`
	Date  string `json:"date"`
	Icon  string `json:"icon"`
	Read  bool   `json:"read"`
}

type feedResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
}

type failedItemResponse struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

type bulkReadResponse struct {
	Marked []int64              `json:"marked"`
	Failed []failedItemResponse `json:"failed"`
	Feed   feedResponse         `json:"feed"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

// errorResponse documents the envelope rendered by the API error handler.
type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}
