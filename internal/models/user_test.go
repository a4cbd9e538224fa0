package models

import (
	"testing"
)

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected bool
	}{
		{"superadmin", RoleSuperadmin, true},
		{"admin user", RoleAdmin, true},
		{"regular user", RoleUser, false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Role: tt.role}
			if got := user.IsAdmin(); got != tt.expected {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUser_IsSuperadmin(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected bool
	}{
		{"superadmin", RoleSuperadmin, true},
		{"admin user", RoleAdmin, false},
		{"regular user", RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Role: tt.role}
			if got := user.IsSuperadmin(); got != tt.expected {
				t.Errorf("IsSuperadmin() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUser_NilIsNotAdmin(t *testing.T) {
	var u *User
	if u.IsAdmin() {
		t.Error("nil user reported as admin")
	}
}

func TestUser_DisplayName(t *testing.T) {
	if got := (&User{Name: "Ada", Email: "ada@example.org"}).DisplayName(); got != "Ada" {
		t.Errorf("DisplayName() = %q, want %q", got, "Ada")
	}
	if got := (&User{Email: "ada@example.org"}).DisplayName(); got != "ada@example.org" {
		t.Errorf("DisplayName() = %q, want email fallback", got)
	}
}
