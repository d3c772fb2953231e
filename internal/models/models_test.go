package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAccountDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    string
	}{
		{
			name:    "doctor uses name",
			account: Account{Role: RoleDoctor, Name: "Dr. Chen"},
			want:    "Dr. Chen",
		},
		{
			name:    "patient uses first and last name",
			account: Account{Role: RolePatient, FirstName: "Alice", LastName: "Nguyen"},
			want:    "Alice Nguyen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.account.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAccountJSONHidesPasswordHash(t *testing.T) {
	account := Account{
		ID:           1,
		Role:         RolePatient,
		Email:        "p@example.com",
		PasswordHash: "$2a$10$secret",
	}

	data, err := json.Marshal(account)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if strings.Contains(string(data), "secret") {
		t.Errorf("serialized account leaks password hash: %s", data)
	}
}

func TestOneTimeCodeIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "future expiry", expiresAt: time.Now().Add(5 * time.Minute), want: false},
		{name: "past expiry", expiresAt: time.Now().Add(-time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := OneTimeCode{ExpiresAt: tt.expiresAt}
			if got := code.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}
