// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/custos/internal/platform/apperr"
	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/platform/ctxutil"
	"github.com/taibuivan/custos/internal/users"
)

/*
DecodeBody reads the request body and decodes it into the target structure,
honouring the Content-Type the way the body parser does for every method
with a payload.

  - application/x-www-form-urlencoded: decoded fields are mapped onto the
    target's JSON field names; "true"/"false" values coerce to booleans.
  - anything else: decoded as JSON.

An empty body leaves the target untouched, so endpoints with optional bodies
can decode into a zero-value struct.
*/
func DecodeBody(request *http.Request, target any) error {
	raw, err := io.ReadAll(request.Body)
	if err != nil {
		return apperr.Validation("Failed to read request body")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}

	mediaType, _, _ := mime.ParseMediaType(request.Header.Get(constants.HeaderContentType))
	if mediaType == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return apperr.Validation("Invalid form payload")
		}
		fields := map[string]any{}
		for key := range values {
			value := values.Get(key)
			if value == "true" || value == "false" {
				fields[key], _ = strconv.ParseBool(value)
				continue
			}
			fields[key] = value
		}
		raw, err = json.Marshal(fields)
		if err != nil {
			return apperr.Validation("Invalid form payload")
		}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return apperr.Validation("Invalid JSON payload")
	}
	return nil
}

/*
ParseBody reads the whole body and decodes it according to Content-Type.

  - application/json: the parsed value; malformed JSON falls back to the raw string.
  - application/x-www-form-urlencoded: a map of decoded fields.
  - anything else: the raw string.

Used by the private resource handlers, which accept arbitrary documents.
*/
func ParseBody(request *http.Request) (any, error) {
	raw, err := io.ReadAll(request.Body)
	if err != nil {
		return nil, apperr.Validation("Failed to read request body")
	}

	mediaType, _, _ := mime.ParseMediaType(request.Header.Get(constants.HeaderContentType))
	switch mediaType {
	case "application/json":
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return string(raw), nil
		}
		return parsed, nil

	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return string(raw), nil
		}
		fields := map[string]string{}
		for key := range values {
			fields[key] = values.Get(key)
		}
		return fields, nil

	default:
		return string(raw), nil
	}
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Wildcard retrieves the trailing wildcard capture of the matched route, with
URL escaping undone.
*/
func Wildcard(request *http.Request) string {
	raw := chi.URLParam(request, "*")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

/*
User returns the authenticated user, or nil for anonymous requests.
*/
func User(request *http.Request) *users.User {
	return ctxutil.GetAuthUser(request.Context())
}

/*
RequiredUser ensures the request is authenticated.

Returns apperr.Unauthorized when the request carries no valid bearer token.
*/
func RequiredUser(request *http.Request) (*users.User, error) {
	user := ctxutil.GetAuthUser(request.Context())
	if user == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return user, nil
}

/*
ClientIP identifies the requesting client: the first X-Forwarded-For hop when
present, otherwise the peer address.
*/
func ClientIP(request *http.Request) string {
	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host := request.RemoteAddr
	if index := strings.LastIndex(host, ":"); index > 0 {
		host = host[:index]
	}
	return host
}
