// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the account lifecycle of the authorization server.

It handles everything from signup and the email-style verification workflow
to credential issuance, refresh-token rotation, and password recovery.

Architecture:

  - Service: Orchestrates business logic (Signup, Signin, Refresh, Reset).
  - Handler: The HTTP delivery layer in http.go.
  - Storage: the user directory, token store, and rotation registry are
    injected; the service never touches the filesystem directly.

The package ensures that identity data remains consistent throughout the
account lifecycle: deleting an account cascades to its tokens and rotation
nodes, and every registry mutation is snapshotted before the response leaves.
*/
package auth

import (
	"fmt"
	"time"

	"github.com/taibuivan/custos/internal/platform/apperr"
	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/token"
	"github.com/taibuivan/custos/internal/users"
	"github.com/taibuivan/custos/pkg/digest"
)

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, rotation,
// or signin logic must be reviewed carefully.
type Service struct {
	directory *users.Directory
	tokens    *token.Store
	rotation  *token.RotationRegistry

	// resetClearsTokens controls whether a successful password reset revokes
	// every existing credential of the account.
	resetClearsTokens bool
}

// NewService constructs a [Service] with its storage dependencies.
func NewService(directory *users.Directory, tokens *token.Store, rotation *token.RotationRegistry, resetClearsTokens bool) *Service {
	return &Service{
		directory:         directory,
		tokens:            tokens,
		rotation:          rotation,
		resetClearsTokens: resetClearsTokens,
	}
}

// # Registration Flow

// SignupInput holds the data required to enroll a new account.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

/*
Signup persists a brand new unverified account and generates its verification
code.

The code is stored on the record; delivery is a concern of an integrator.

Returns:
  - error: Conflict when the username is taken, or storage errors
*/
func (service *Service) Signup(input SignupInput) error {
	existing, err := service.directory.Get(input.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("User already exists")
	}

	code, err := digest.NumericCode(constants.VerificationCodeLength)
	if err != nil {
		return fmt.Errorf("auth: failed to generate verification code: %w", err)
	}

	now := time.Now()
	user := &users.User{
		Name:             input.Username,
		Email:            input.Email,
		PasswordHash:     digest.HashPassword(input.Password),
		Verified:         false,
		VerificationCode: code,
		Roles:            []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return service.directory.Save(user)
}

/*
ConfirmSignup completes the verification workflow: on a matching code the
account is marked verified and its first token pair is minted.

Returns:
  - *token.Pair: the freshly minted credentials
  - error: NotFound, Validation (already verified), Unauthorized (bad code)
*/
func (service *Service) ConfirmSignup(username, code string) (*token.Pair, error) {
	user, err := service.directory.Get(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	if user.Verified {
		return nil, apperr.Validation("User already verified")
	}
	if code == "" || code != user.VerificationCode {
		return nil, apperr.Unauthorized("Invalid verification code")
	}

	user.Verified = true
	user.VerificationCode = ""
	user.UpdatedAt = time.Now()
	if err := service.directory.Save(user); err != nil {
		return nil, err
	}

	return service.issuePair(user.Name, "")
}

/*
DeleteAccount removes the account record and cascades: every token and every
rotation node of the subject disappears with it.
*/
func (service *Service) DeleteAccount(username string) error {
	user, err := service.directory.Get(username)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("User not found")
	}

	service.tokens.Forget(username)
	service.rotation.ClearSubject(username)
	if err := service.directory.Delete(username); err != nil {
		return err
	}
	return service.rotation.Save()
}

/*
Bootstrap seeds the directory on first start: when no account exists, the
root admin is created (verified, password "root") and issued its first token
pair. A non-empty directory is a no-op.

Returns:
  - *token.Pair: the root credentials, or nil when nothing was seeded
*/
func (service *Service) Bootstrap() (*token.Pair, error) {
	empty, err := service.directory.Empty()
	if err != nil {
		return nil, err
	}
	if !empty {
		return nil, nil
	}

	now := time.Now()
	root := &users.User{
		Name:         constants.RootUsername,
		PasswordHash: digest.HashPassword(constants.RootPassword),
		Verified:     true,
		Roles:        []string{users.RoleAdmin},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := service.directory.Save(root); err != nil {
		return nil, err
	}
	return service.issuePair(root.Name, "")
}

// # Authentication Flow

/*
Signin validates credentials and issues a token pair.

The unknown-user and wrong-password responses deliberately share one body
("Invalid password or username") to avoid account enumeration; only the
status distinguishes them.

Returns:
  - *token.Pair: the freshly minted credentials
  - error: NotFound, NotVerified, or Unauthorized
*/
func (service *Service) Signin(username, password string) (*token.Pair, error) {
	user, err := service.directory.Get(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("Invalid password or username")
	}
	if !user.Verified {
		return nil, apperr.NotVerified("User is not verified")
	}
	if !digest.CheckPassword(password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid password or username")
	}

	return service.issuePair(user.Name, "")
}

/*
Signout revokes every credential of the caller: all tokens and all rotation
nodes.
*/
func (service *Service) Signout(username string) error {
	if err := service.tokens.ClearSubject(username); err != nil {
		return err
	}
	service.rotation.ClearSubject(username)
	return service.rotation.Save()
}

// # Token Rotation

/*
Refresh implements the rotation mechanism: the presented refresh token must
authenticate and be registered for its subject; a new pair is minted whose
refresh token chains onto the presented one. With replace set, the presented
token's entire chain is invalidated so no descendant pair remains valid.

Returns:
  - *token.Pair: the rotated credentials
  - error: Unauthorized for any failure to authenticate or validate
*/
func (service *Service) Refresh(presented string, replace bool) (*token.Pair, error) {
	record, ok := service.tokens.Lookup(presented)
	if !ok || !record.IsRefresh {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	user, err := service.tokens.Auth(presented)
	if err != nil || user == nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	if !service.rotation.Validate(presented, user.Name) {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	pair, err := service.issuePair(user.Name, presented)
	if err != nil {
		return nil, err
	}

	if replace {
		service.rotation.Invalidate(presented)
		if err := service.rotation.Save(); err != nil {
			return nil, err
		}
	}
	return pair, nil
}

// # Password Recovery

/*
Forgot initiates the recovery flow: a reset code is generated and stored on
the record. Delivery is out-of-band.
*/
func (service *Service) Forgot(username string) error {
	user, err := service.directory.Get(username)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("User not found")
	}

	code, err := digest.NumericCode(constants.VerificationCodeLength)
	if err != nil {
		return fmt.Errorf("auth: failed to generate reset code: %w", err)
	}
	user.ResetCode = code
	user.UpdatedAt = time.Now()
	return service.directory.Save(user)
}

/*
Reset completes the recovery flow: on a matching code the password is
replaced and, when configured, every existing credential is revoked before a
fresh pair is minted.

The unknown-user body reads "Invalid reset code" on purpose; it mirrors the
mismatch response so the endpoint does not confirm account existence.
*/
func (service *Service) Reset(username, code, password string) (*token.Pair, error) {
	user, err := service.directory.Get(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("Invalid reset code")
	}
	if code == "" || code != user.ResetCode {
		return nil, apperr.Unauthorized("Invalid reset code")
	}

	user.PasswordHash = digest.HashPassword(password)
	user.ResetCode = ""
	user.UpdatedAt = time.Now()
	if err := service.directory.Save(user); err != nil {
		return nil, err
	}

	if service.resetClearsTokens {
		if err := service.tokens.ClearSubject(username); err != nil {
			return nil, err
		}
		service.rotation.ClearSubject(username)
	}

	return service.issuePair(user.Name, "")
}

// # Directory Queries

// GetUser loads a user for projection. Unknown names map to NotFound.
func (service *Service) GetUser(username string) (*users.User, error) {
	user, err := service.directory.Get(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

// ListUsers enumerates every username, sorted.
func (service *Service) ListUsers() ([]string, error) {
	return service.directory.List()
}

// # Helpers

// issuePair mints a pair, registers its refresh token in the rotation chain
// behind previous, and persists the registry snapshot.
func (service *Service) issuePair(subject, previous string) (*token.Pair, error) {
	pair, err := service.tokens.Mint(subject)
	if err != nil {
		return nil, err
	}
	service.rotation.Register(pair.RefreshToken, subject, previous)
	if err := service.rotation.Save(); err != nil {
		return nil, err
	}
	return pair, nil
}
