// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth provides the HTTP delivery layer for the account lifecycle.

# Architecture

The handler acts as a thin mediation layer between the web and the domain
service:

  - Protocol: Standard RESTful JSON interface.
  - Security: bearer resolution happens upstream in the middleware chain;
    handlers only consult the request context.
  - Verification: strict input validation before anything reaches [Service].

This layer is strictly responsible for transport concerns (status codes,
headers, JSON).
*/
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/custos/internal/access"
	"github.com/taibuivan/custos/internal/platform/apperr"
	requestutil "github.com/taibuivan/custos/internal/platform/request"
	"github.com/taibuivan/custos/internal/platform/respond"
	"github.com/taibuivan/custos/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the /auth endpoint set.
type Handler struct {
	authService *Service
	evaluator   *access.Evaluator
}

// NewHandler constructs a [Handler] with its dependencies.
func NewHandler(service *Service, evaluator *access.Evaluator) *Handler {
	return &Handler{authService: service, evaluator: evaluator}
}

// Routes returns a [chi.Router] configured with the authentication routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signup", handler.signup)
	router.Put("/signup/{username}", handler.confirmSignup)
	router.Delete("/signup/{username}", handler.deleteAccount)

	router.Post("/signin/{username}", handler.signin)
	router.Get("/signin/{username}", handler.getUser)
	router.Delete("/signin/{username}", handler.signout)

	router.Put("/refresh/{token}", handler.refresh)

	router.Post("/forgot/{username}", handler.forgot)
	router.Put("/forgot/{username}", handler.reset)

	router.Get("/info", handler.listUsers)
	router.Get("/info/{username}", handler.getUser)
	router.Get("/access/info", handler.accessInfo)

	return router
}

// # Request Payloads

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type confirmRequest struct {
	Code string `json:"code"`
}

type signinRequest struct {
	Password string `json:"password"`
}

type refreshRequest struct {
	Replace bool `json:"replace"`
}

type resetRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

// # Registration

/*
signup creates a new unverified account.

POST /auth/signup

Response:
  - 200: {message}: verification code generated and stored
  - 400: missing fields or invalid username
  - 409: username already registered
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("username", input.Username).
		Required("email", input.Email).
		Required("password", input.Password)
	if input.Username != "" {
		validator.Username("username", input.Username)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Signup(SignupInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	}); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": "Verification code sent"})
}

/*
confirmSignup completes the verification workflow and issues the first pair.

PUT /auth/signup/:username

Response:
  - 200: {message, accessToken, refreshToken}
  - 400: already verified
  - 401: mismatched code
  - 404: unknown user
*/
func (handler *Handler) confirmSignup(writer http.ResponseWriter, request *http.Request) {
	var input confirmRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.ConfirmSignup(requestutil.Param(request, "username"), input.Code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"message":      "User verified",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

/*
deleteAccount removes an account and cascades its credentials.

DELETE /auth/signup/:username

Response:
  - 200: {message}
  - 404: unknown user
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	username := requestutil.Param(request, "username")
	if err := handler.authService.DeleteAccount(username); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": "User deleted"})
}

// # Sessions

/*
signin authenticates with a password and issues a token pair.

POST /auth/signin/:username

Response:
  - 200: {accessToken, refreshToken}
  - 401: wrong password
  - 403: account not verified
  - 404: unknown user (same body as 401 to prevent enumeration)
*/
func (handler *Handler) signin(writer http.ResponseWriter, request *http.Request) {
	var input signinRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Signin(requestutil.Param(request, "username"), input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

/*
signout revokes every credential of the caller.

DELETE /auth/signin/:username

Response:
  - 200: {message}
  - 401: no bearer token
*/
func (handler *Handler) signout(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Signout(caller.Name); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": "Signed out"})
}

/*
refresh rotates a refresh token into a new pair.

PUT /auth/refresh/:token

With {"replace": true} the presented token's entire rotation chain is
invalidated, so a replayed ancestor finds nothing to reuse.

Response:
  - 200: {accessToken, refreshToken}
  - 401: unknown, expired, or unregistered refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Refresh(requestutil.Param(request, "token"), input.Replace)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// # Password Recovery

/*
forgot generates and stores a reset code.

POST /auth/forgot/:username

Response:
  - 200: {message}
  - 404: unknown user
*/
func (handler *Handler) forgot(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Forgot(requestutil.Param(request, "username")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": "Reset code sent"})
}

/*
reset completes the recovery flow and issues a fresh pair.

PUT /auth/forgot/:username

Response:
  - 200: {message, accessToken, refreshToken}
  - 401: mismatched code
  - 404: unknown user
*/
func (handler *Handler) reset(writer http.ResponseWriter, request *http.Request) {
	var input resetRequest
	if err := requestutil.DecodeBody(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("code", input.Code).Required("password", input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Reset(requestutil.Param(request, "username"), input.Code, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"message":      "Password reset",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// # Directory

/*
getUser projects a user record for the caller.

GET /auth/signin/:username
GET /auth/info/:username

Visibility: admins and the account owner see the full record minus secrets;
public accounts expose the same to anyone; everyone else gets the minimal
projection.

Response:
  - 200: user projection
  - 401: no bearer token
  - 404: unknown user
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.GetUser(requestutil.Param(request, "username"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.ProjectFor(caller))
}

/*
listUsers enumerates every username. Admin only.

GET /auth/info

Response:
  - 200: {users: [...]}
  - 403: caller is not an admin
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	caller := requestutil.User(request)
	if caller == nil || !caller.IsAdmin() {
		respond.Error(writer, request, apperr.Forbidden("Admin role required"))
		return
	}

	names, err := handler.authService.ListUsers()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string][]string{"users": names})
}

/*
accessInfo summarises the access rules that apply to the caller.

GET /auth/access/info

Response:
  - 200: {userAccess, groupRules, globalRules, groups}
  - 401: no bearer token
*/
func (handler *Handler) accessInfo(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	summary, err := handler.evaluator.Summary(caller)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, summary)
}
