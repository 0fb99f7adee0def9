// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/platform/respond"
)

// NewLivenessHandler creates the /health http.HandlerFunc. The probe is
// unauthenticated: it answers 200 whenever the process is serving.
func NewLivenessHandler() http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		respond.OK(writer, map[string]string{
			"status":  "ok",
			"version": constants.AppVersion,
		})
	}
}
