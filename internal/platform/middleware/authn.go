// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/platform/ctxutil"
	"github.com/taibuivan/custos/internal/token"
)

// Authenticate resolves the bearer token (if any) into the request context.
//
// # Flow
//
//  1. Check for 'Authorization: Bearer <token>'.
//  2. If absent or unresolvable, the request proceeds as anonymous;
//     endpoints that require identity respond 401 themselves.
//  3. On success, the user record is attached to the context.
//
// Expired tokens are removed by the token store during resolution
// (self-healing); a token whose subject vanished is a data-integrity signal
// and is logged.
func Authenticate(tokens *token.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			presented := bearerToken(request)
			if presented == "" {
				next.ServeHTTP(writer, request)
				return
			}

			user, err := tokens.Auth(presented)
			if err != nil {
				if errors.Is(err, token.ErrSubjectMissing) {
					ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(),
						"token_subject_missing", slog.String("error", err.Error()))
				}
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), user)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// bearerToken extracts the opaque token from the Authorization header, or
// "" when the header is missing or not a bearer scheme.
func bearerToken(request *http.Request) string {
	header := request.Header.Get(constants.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
