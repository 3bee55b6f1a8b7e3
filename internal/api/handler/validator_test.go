package handler

import (
	"strings"
	"testing"
)

func TestValidator_LoginRequest(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		req     loginRequest
		wantErr string
	}{
		{"valid", loginRequest{Username: "nurse.lan", Password: "pw"}, ""},
		{"missing password", loginRequest{Username: "nurse.lan"}, "password is required"},
		{"blank username", loginRequest{Username: "   ", Password: "pw"}, "username must not be blank"},
		{"long username", loginRequest{Username: strings.Repeat("a", 129), Password: "pw"}, "username must be at most 128 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
