// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// failures before returning a single [apperr.AppError].
//
// # Architecture
//
// This package is used in the handler layer to reject malformed input before
// any service logic runs. All failures surface as one 400 response.
package validate

import (
	"strings"

	"github.com/taibuivan/custos/internal/platform/apperr"
	"github.com/taibuivan/custos/internal/users"
)

// Validator collects field-level validation failures via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request.
type Validator struct {
	fields []string
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.fields = append(v.fields, field)
	}
	return v
}

// Username fails if the value violates the account name contract
// (3-32 characters of [A-Za-z0-9_-]).
func (v *Validator) Username(field, value string) *Validator {
	if !users.ValidName(value) {
		v.fields = append(v.fields, field)
	}
	return v
}

// Err returns a 400 [apperr.AppError] naming the failed fields, or nil if
// all rules passed.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return apperr.Validation("Missing or invalid fields: " + strings.Join(v.fields, ", "))
}
