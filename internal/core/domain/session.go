package domain

import "time"

// User is the logged-in account as reported by the backend at login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

// Session holds the current user and bearer token. A session without a
// token is not authenticated.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is the token's exp claim; zero when the token carries none.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Expired reports whether the token's expiry has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) Role() Role {
	if s == nil {
		return ""
	}
	return s.User.Role
}

func (s *Session) IsAdmin() bool       { return s.Role() == RoleAdmin }
func (s *Session) IsManager() bool     { return s.Role() == RoleManager }
func (s *Session) IsSchoolNurse() bool { return s.Role() == RoleSchoolNurse }
func (s *Session) IsParent() bool      { return s.Role() == RoleParent }
