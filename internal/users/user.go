// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users

import (
	"time"
)

// # Roles

const (
	// RoleAdmin grants unrestricted access to administrative endpoints.
	RoleAdmin = "admin"
)

// # Entities

// User is an account record as persisted in info.json, with the token
// document merged in at load time.
type User struct {
	// Name is the unique account identifier, 3-32 chars of [A-Za-z0-9_-].
	Name string `json:"name"`

	// Email is the delivery address for verification and reset codes.
	Email string `json:"email"`

	// PasswordHash is the short digest of the account password.
	PasswordHash string `json:"passwordHash"`

	// Verified reports whether the signup verification completed. Signin is
	// refused while false.
	Verified bool `json:"verified"`

	// VerificationCode is the pending signup code, empty once verified.
	VerificationCode string `json:"verificationCode,omitempty"`

	// ResetCode is the pending password reset code, if any.
	ResetCode string `json:"resetCode,omitempty"`

	// Roles is the set of role names granted to the account.
	Roles []string `json:"roles"`

	// IsPublic opts the account into the public profile projection.
	IsPublic bool `json:"isPublic,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Tokens is the content of tokens.json, keyed by token string. It is
	// never serialized into info.json.
	Tokens map[string]TokenEntry `json:"-"`
}

// TokenEntry is one row of a user's tokens.json document.
type TokenEntry struct {
	// Time is the issuance instant; expiry is measured from it.
	Time time.Time `json:"time"`

	// IsRefresh distinguishes refresh tokens from access tokens.
	IsRefresh bool `json:"isRefresh"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool { return u.HasRole(RoleAdmin) }

// # Projections

// Projection is a client-facing view of a user record. Secrets (password
// hash, verification code, reset code) never appear in any projection.
type Projection map[string]any

// ProjectFull is the view admins and the account owner receive, and the view
// public accounts expose: the full record minus secret material.
func (u *User) ProjectFull() Projection {
	return Projection{
		"username":  u.Name,
		"email":     u.Email,
		"verified":  u.Verified,
		"roles":     u.Roles,
		"isPublic":  u.IsPublic,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

// ProjectMinimal is the view strangers receive for non-public accounts.
func (u *User) ProjectMinimal() Projection {
	return Projection{
		"username":  u.Name,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
	}
}

// ProjectFor picks the projection appropriate for the given viewer.
func (u *User) ProjectFor(viewer *User) Projection {
	if viewer != nil && (viewer.IsAdmin() || viewer.Name == u.Name) {
		return u.ProjectFull()
	}
	if u.IsPublic {
		return u.ProjectFull()
	}
	return u.ProjectMinimal()
}
