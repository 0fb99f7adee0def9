// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/custos/internal/auth"
	"github.com/taibuivan/custos/internal/platform/apperr"
	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/store"
	"github.com/taibuivan/custos/internal/token"
	"github.com/taibuivan/custos/internal/users"
	"github.com/taibuivan/custos/pkg/digest"
)

type serviceFixture struct {
	service   *auth.Service
	directory *users.Directory
	tokens    *token.Store
	rotation  *token.RotationRegistry
}

func newServiceFixture(t *testing.T, resetClearsTokens bool) *serviceFixture {
	t.Helper()
	documents, err := store.New(t.TempDir())
	require.NoError(t, err)

	directory := users.NewDirectory(documents)
	tokens := token.NewStore(directory, documents, digest.RandomToken)
	rotation := token.NewRotationRegistry(documents)

	return &serviceFixture{
		service:   auth.NewService(directory, tokens, rotation, resetClearsTokens),
		directory: directory,
		tokens:    tokens,
		rotation:  rotation,
	}
}

// enroll runs signup + confirm and returns the first token pair.
func (f *serviceFixture) enroll(t *testing.T, username string) *token.Pair {
	t.Helper()
	require.NoError(t, f.service.Signup(auth.SignupInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret",
	}))

	user, err := f.directory.Get(username)
	require.NoError(t, err)
	require.NotNil(t, user)

	pair, err := f.service.ConfirmSignup(username, user.VerificationCode)
	require.NoError(t, err)
	return pair
}

/*
TestSignup_GeneratesCode stores an unverified account with a 6-digit code.
*/
func TestSignup_GeneratesCode(t *testing.T) {
	f := newServiceFixture(t, true)
	require.NoError(t, f.service.Signup(auth.SignupInput{
		Username: "alice", Email: "a@x", Password: "p",
	}))

	user, err := f.directory.Get("alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.False(t, user.Verified)
	assert.Len(t, user.VerificationCode, constants.VerificationCodeLength)
	assert.True(t, digest.CheckPassword("p", user.PasswordHash))
}

/*
TestSignup_Duplicate refuses a taken username with the contractual message.
*/
func TestSignup_Duplicate(t *testing.T) {
	f := newServiceFixture(t, true)
	input := auth.SignupInput{Username: "alice", Email: "a@x", Password: "p"}
	require.NoError(t, f.service.Signup(input))

	err := f.service.Signup(input)
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 409, ae.HTTPStatus)
	assert.Equal(t, "User already exists", ae.Message)
}

/*
TestConfirmSignup covers the verification transitions: success mints a pair,
wrong code is 401, repeating the confirmation is 400, unknown user is 404.
*/
func TestConfirmSignup(t *testing.T) {
	f := newServiceFixture(t, true)
	require.NoError(t, f.service.Signup(auth.SignupInput{Username: "alice", Email: "a@x", Password: "p"}))

	_, err := f.service.ConfirmSignup("alice", "wrong!")
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 401, apperr.As(err).HTTPStatus)

	user, err := f.directory.Get("alice")
	require.NoError(t, err)
	pair, err := f.service.ConfirmSignup("alice", user.VerificationCode)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// The code is single use and the account is now verified.
	verified, err := f.directory.Get("alice")
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Empty(t, verified.VerificationCode)

	_, err = f.service.ConfirmSignup("alice", "123456")
	assert.Equal(t, 400, apperr.As(err).HTTPStatus)

	_, err = f.service.ConfirmSignup("nobody", "123456")
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)
}

/*
TestSignin covers status and wording of the failure modes. Unknown user and
wrong password share one body to prevent account enumeration.
*/
func TestSignin(t *testing.T) {
	f := newServiceFixture(t, true)
	f.enroll(t, "alice")

	pair, err := f.service.Signin("alice", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = f.service.Signin("alice", "wrong")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 401, ae.HTTPStatus)
	assert.Equal(t, "Invalid password or username", ae.Message)

	_, err = f.service.Signin("nobody", "secret")
	ae = apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 404, ae.HTTPStatus)
	assert.Equal(t, "Invalid password or username", ae.Message)
}

/*
TestSignin_Unverified refuses accounts that never confirmed.
*/
func TestSignin_Unverified(t *testing.T) {
	f := newServiceFixture(t, true)
	require.NoError(t, f.service.Signup(auth.SignupInput{Username: "alice", Email: "a@x", Password: "p"}))

	_, err := f.service.Signin("alice", "p")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 403, ae.HTTPStatus)
	assert.Equal(t, "User is not verified", ae.Message)
}

/*
TestSignout revokes every credential of the account.
*/
func TestSignout(t *testing.T) {
	f := newServiceFixture(t, true)
	pair := f.enroll(t, "alice")

	require.NoError(t, f.service.Signout("alice"))

	_, err := f.tokens.Auth(pair.AccessToken)
	assert.ErrorIs(t, err, token.ErrTokenUnknown)
	assert.False(t, f.rotation.Validate(pair.RefreshToken, "alice"))
}

/*
TestRefresh_Rotation exercises the rotation invariant: with replace, the
presented chain is invalidated and a replayed ancestor is refused.
*/
func TestRefresh_Rotation(t *testing.T) {
	f := newServiceFixture(t, true)
	pair := f.enroll(t, "alice")

	rotated, err := f.service.Refresh(pair.RefreshToken, true)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Replaying the original refresh token fails even though the token store
	// may still hold it: the rotation registry no longer accepts it.
	_, err = f.service.Refresh(pair.RefreshToken, true)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 401, ae.HTTPStatus)
	assert.Equal(t, "Invalid refresh token", ae.Message)
}

/*
TestRefresh_WithoutReplace keeps the presented token usable.
*/
func TestRefresh_WithoutReplace(t *testing.T) {
	f := newServiceFixture(t, true)
	pair := f.enroll(t, "alice")

	_, err := f.service.Refresh(pair.RefreshToken, false)
	require.NoError(t, err)

	_, err = f.service.Refresh(pair.RefreshToken, false)
	require.NoError(t, err)
}

/*
TestRefresh_RejectsAccessToken refuses a non-refresh token outright.
*/
func TestRefresh_RejectsAccessToken(t *testing.T) {
	f := newServiceFixture(t, true)
	pair := f.enroll(t, "alice")

	_, err := f.service.Refresh(pair.AccessToken, false)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 401, ae.HTTPStatus)
}

/*
TestForgotAndReset covers the recovery flow, including the deliberate
"Invalid reset code" wording for unknown users and the token-clearing flag.
*/
func TestForgotAndReset(t *testing.T) {
	f := newServiceFixture(t, true)
	pair := f.enroll(t, "alice")

	err := f.service.Forgot("nobody")
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)

	require.NoError(t, f.service.Forgot("alice"))
	user, err := f.directory.Get("alice")
	require.NoError(t, err)
	require.Len(t, user.ResetCode, constants.VerificationCodeLength)

	_, err = f.service.Reset("alice", "wrong!", "newpass")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 401, ae.HTTPStatus)
	assert.Equal(t, "Invalid reset code", ae.Message)

	_, err = f.service.Reset("nobody", "000000", "newpass")
	ae = apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 404, ae.HTTPStatus)
	assert.Equal(t, "Invalid reset code", ae.Message)

	fresh, err := f.service.Reset("alice", user.ResetCode, "newpass")
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// Old credentials are revoked by configuration, new password works.
	_, err = f.tokens.Auth(pair.AccessToken)
	assert.ErrorIs(t, err, token.ErrTokenUnknown)
	_, err = f.service.Signin("alice", "newpass")
	require.NoError(t, err)
	_, err = f.service.Signin("alice", "secret")
	assert.Equal(t, 401, apperr.As(err).HTTPStatus)
}

/*
TestReset_KeepsTokensWhenDisabled leaves existing credentials alone when the
clearing flag is off.
*/
func TestReset_KeepsTokensWhenDisabled(t *testing.T) {
	f := newServiceFixture(t, false)
	pair := f.enroll(t, "alice")

	require.NoError(t, f.service.Forgot("alice"))
	user, err := f.directory.Get("alice")
	require.NoError(t, err)

	_, err = f.service.Reset("alice", user.ResetCode, "newpass")
	require.NoError(t, err)

	resolved, err := f.tokens.Auth(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", resolved.Name)
}

/*
TestDeleteAccount cascades record, tokens, and rotation nodes.
*/
func TestDeleteAccount(t *testing.T) {
	f := newServiceFixture(t, true)
	pair := f.enroll(t, "alice")

	require.NoError(t, f.service.DeleteAccount("alice"))

	user, err := f.directory.Get("alice")
	require.NoError(t, err)
	assert.Nil(t, user)
	_, err = f.tokens.Auth(pair.AccessToken)
	assert.ErrorIs(t, err, token.ErrTokenUnknown)
	assert.False(t, f.rotation.Validate(pair.RefreshToken, "alice"))

	err = f.service.DeleteAccount("alice")
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)
}

/*
TestBootstrap seeds the root admin exactly once.
*/
func TestBootstrap(t *testing.T) {
	f := newServiceFixture(t, true)

	pair, err := f.service.Bootstrap()
	require.NoError(t, err)
	require.NotNil(t, pair)

	root, err := f.directory.Get(constants.RootUsername)
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.True(t, root.Verified)
	assert.True(t, root.IsAdmin())

	_, err = f.service.Signin(constants.RootUsername, constants.RootPassword)
	require.NoError(t, err)

	// A populated directory is never reseeded.
	again, err := f.service.Bootstrap()
	require.NoError(t, err)
	assert.Nil(t, again)
}
