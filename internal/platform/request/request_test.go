// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/custos/internal/platform/apperr"
)

type decodeTarget struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Replace  bool   `json:"replace"`
}

func bodyRequest(contentType, body string) *http.Request {
	request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	return request
}

/*
TestDecodeBody covers the two payload encodings the endpoints accept and the
degenerate bodies around them.
*/
func TestDecodeBody(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var target decodeTarget
		request := bodyRequest("application/json", `{"username":"alice","password":"secret"}`)
		require.NoError(t, DecodeBody(request, &target))
		assert.Equal(t, "alice", target.Username)
		assert.Equal(t, "secret", target.Password)
	})

	t.Run("form urlencoded", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"p&w=1"}, "replace": {"true"}}
		var target decodeTarget
		request := bodyRequest("application/x-www-form-urlencoded", form.Encode())
		require.NoError(t, DecodeBody(request, &target))
		assert.Equal(t, "alice", target.Username)
		assert.Equal(t, "p&w=1", target.Password)
		assert.True(t, target.Replace)
	})

	t.Run("form boolean stays literal unless exact", func(t *testing.T) {
		// "True" is not coerced, so it must not silently unmarshal into a bool.
		var target decodeTarget
		request := bodyRequest("application/x-www-form-urlencoded", "replace=True")
		err := DecodeBody(request, &target)
		require.Error(t, err)
		assert.Equal(t, "Invalid JSON payload", err.Error())
	})

	t.Run("empty body is a no-op", func(t *testing.T) {
		target := decodeTarget{Username: "keep"}
		request := bodyRequest("application/json", "  \n")
		require.NoError(t, DecodeBody(request, &target))
		assert.Equal(t, "keep", target.Username)
	})

	t.Run("malformed json", func(t *testing.T) {
		var target decodeTarget
		err := DecodeBody(bodyRequest("application/json", "{nope"), &target)
		require.Error(t, err)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)
		assert.Equal(t, "Invalid JSON payload", appError.Message)
	})

	t.Run("missing content type decodes as json", func(t *testing.T) {
		var target decodeTarget
		request := bodyRequest("", `{"username":"bob"}`)
		require.NoError(t, DecodeBody(request, &target))
		assert.Equal(t, "bob", target.Username)
	})
}

/*
TestParseBody checks the content-negotiated document decoder used by the
private namespace.
*/
func TestParseBody(t *testing.T) {
	t.Run("json object", func(t *testing.T) {
		parsed, err := ParseBody(bodyRequest("application/json", `{"v":1}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"v": float64(1)}, parsed)
	})

	t.Run("invalid json falls back to raw", func(t *testing.T) {
		parsed, err := ParseBody(bodyRequest("application/json", "not json"))
		require.NoError(t, err)
		assert.Equal(t, "not json", parsed)
	})

	t.Run("form", func(t *testing.T) {
		parsed, err := ParseBody(bodyRequest("application/x-www-form-urlencoded", "a=1&b=two"))
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "two"}, parsed)
	})

	t.Run("plain text", func(t *testing.T) {
		parsed, err := ParseBody(bodyRequest("text/plain", "hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", parsed)
	})
}

/*
TestClientIP prefers the first forwarded hop and strips the peer port.
*/
func TestClientIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.0.0.9:4411"
	assert.Equal(t, "10.0.0.9", ClientIP(request))

	request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(request))
}
