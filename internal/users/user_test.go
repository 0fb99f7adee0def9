// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/custos/internal/users"
)

/*
TestProjectFor covers the visibility policy: admin and owner get the full
view, public accounts expose the full view to anyone, strangers get the
minimal view. Secrets never appear.
*/
func TestProjectFor(t *testing.T) {
	subject := &users.User{
		Name:             "alice",
		Email:            "alice@example.com",
		PasswordHash:     "secret-hash",
		VerificationCode: "123456",
		ResetCode:        "654321",
		Verified:         true,
	}
	admin := &users.User{Name: "root", Roles: []string{users.RoleAdmin}}
	stranger := &users.User{Name: "mallory"}

	tests := []struct {
		name   string
		viewer *users.User
		full   bool
	}{
		{"admin_sees_full", admin, true},
		{"self_sees_full", subject, true},
		{"stranger_sees_minimal", stranger, false},
		{"anonymous_sees_minimal", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projection := subject.ProjectFor(tt.viewer)

			assert.Equal(t, "alice", projection["username"])
			assert.Equal(t, "alice@example.com", projection["email"])
			if tt.full {
				assert.Contains(t, projection, "verified")
				assert.Contains(t, projection, "roles")
			} else {
				assert.NotContains(t, projection, "verified")
				assert.NotContains(t, projection, "roles")
			}

			// Secret material is excluded from every view.
			for key := range projection {
				assert.NotContains(t, []string{"passwordHash", "verificationCode", "resetCode"}, key)
			}
		})
	}
}

/*
TestProjectFor_Public opts an account into the full projection for strangers.
*/
func TestProjectFor_Public(t *testing.T) {
	subject := &users.User{Name: "alice", IsPublic: true}
	projection := subject.ProjectFor(&users.User{Name: "mallory"})
	assert.Contains(t, projection, "verified")
	assert.Equal(t, true, projection["isPublic"])
}

/*
TestHasRole checks role membership helpers.
*/
func TestHasRole(t *testing.T) {
	user := &users.User{Roles: []string{"editor", "admin"}}
	assert.True(t, user.HasRole("editor"))
	assert.True(t, user.IsAdmin())
	assert.False(t, (&users.User{}).IsAdmin())
}
