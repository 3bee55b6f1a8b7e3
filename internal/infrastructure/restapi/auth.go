package restapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
)

const loginPath = "/auth/login"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	RoleName string `json:"roleName"`
}

// loginResponse covers both the nested {token, user} shape and the flat
// shape where user fields sit beside the token.
type loginResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"accessToken"`
	User        *userPayload `json:"user"`
	userPayload
}

// Login authenticates against POST /auth/login. A 401 from the backend is
// reported as domain.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	var resp loginResponse
	err := c.doJSON(ctx, "auth.login", http.MethodPost, loginPath, "", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	u := resp.userPayload
	if resp.User != nil {
		u = *resp.User
	}
	rawRole := u.RoleName
	if rawRole == "" {
		rawRole = u.Role
	}

	return &ports.LoginResult{
		Token: strings.TrimPrefix(token, "Bearer "),
		User: domain.User{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.FullName,
			Email:    u.Email,
			Role:     domain.ParseRole(rawRole),
		},
		RawRole: rawRole,
	}, nil
}
