package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Role Validation Tests
// ============================================================================

func TestValidRoles_ContainsAll(t *testing.T) {
	roles := ValidRoles()
	expected := []string{RoleBuyer, RoleSeller, RoleAdmin}
	assert.ElementsMatch(t, expected, roles)
}

func TestIsValidRole_ValidRoles(t *testing.T) {
	for _, r := range ValidRoles() {
		assert.True(t, IsValidRole(r), "expected %q to be valid", r)
	}
}

func TestIsValidRole_Invalid(t *testing.T) {
	assert.False(t, IsValidRole("unknown"))
	assert.False(t, IsValidRole(""))
	assert.False(t, IsValidRole("BUYER"))
	assert.False(t, IsValidRole("superadmin"))
}

func TestIsRegistrableRole(t *testing.T) {
	assert.True(t, IsRegistrableRole(RoleBuyer))
	assert.True(t, IsRegistrableRole(RoleSeller))
	assert.False(t, IsRegistrableRole(RoleAdmin))
	assert.False(t, IsRegistrableRole(""))
}

// ============================================================================
// User Struct Tests
// ============================================================================

func TestUser_PasswordHashExcludedFromJSON(t *testing.T) {
	u := User{PasswordHash: "secret"}
	assert.Equal(t, "secret", u.PasswordHash)
	// The json:"-" tag ensures PasswordHash is excluded from serialization.
	// Testing struct tag presence is validated at compile time.
}

func TestUser_DefaultFields(t *testing.T) {
	u := User{}
	assert.False(t, u.IsActive)
	assert.False(t, u.EmailVerified)
	assert.Empty(t, u.Role)
}

func TestUser_ActiveUser(t *testing.T) {
	u := User{
		ID:            "user-1",
		Email:         "test@example.com",
		FirstName:     "John",
		LastName:      "Doe",
		Role:          RoleBuyer,
		IsActive:      true,
		EmailVerified: true,
	}
	assert.True(t, u.IsActive)
	assert.True(t, u.EmailVerified)
	assert.Equal(t, RoleBuyer, u.Role)
}

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected string
	}{
		{"both names", User{FirstName: "John", LastName: "Doe"}, "John Doe"},
		{"first only", User{FirstName: "John"}, "John"},
		{"last only", User{LastName: "Doe"}, "Doe"},
		{"empty", User{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.DisplayName())
		})
	}
}

// ============================================================================
// RefreshSession Tests
// ============================================================================

func TestRefreshSession_Expiry(t *testing.T) {
	future := time.Now().Add(7 * 24 * time.Hour)
	rs := RefreshSession{UserID: "user-1", ExpiresAt: future}
	assert.True(t, rs.ExpiresAt.After(time.Now()))
}

// ============================================================================
// TokenPair Tests
// ============================================================================

func TestTokenPair_Fields(t *testing.T) {
	tp := TokenPair{AccessToken: "access-123", RefreshToken: "refresh-456"}
	assert.Equal(t, "access-123", tp.AccessToken)
	assert.Equal(t, "refresh-456", tp.RefreshToken)
}

// ============================================================================
// Session Tests
// ============================================================================

func TestSession_HasRole(t *testing.T) {
	s := Session{IsAuthenticated: true, User: &User{Role: RoleSeller}}
	assert.True(t, s.HasRole(RoleSeller))
	assert.False(t, s.HasRole(RoleBuyer))
}

func TestSession_HasRole_Unauthenticated(t *testing.T) {
	s := Session{User: &User{Role: RoleSeller}}
	assert.False(t, s.HasRole(RoleSeller))
}

func TestSession_HasRole_NilUser(t *testing.T) {
	s := Session{IsAuthenticated: true}
	assert.False(t, s.HasRole(RoleBuyer))
}

func TestSession_IsEmailVerified(t *testing.T) {
	assert.True(t, Session{User: &User{EmailVerified: true}}.IsEmailVerified())
	assert.False(t, Session{User: &User{}}.IsEmailVerified())
	assert.False(t, Session{}.IsEmailVerified())
}
