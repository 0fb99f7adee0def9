// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package private

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/custos/internal/access"
)

/*
TestResourcePath pins the containment rules for the wildcard capture. The
capture arrives URL-unescaped, so encoded dot segments show up here as
literal dots and must never resolve outside the namespace.
*/
func TestResourcePath(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{"plain file", "notes.json", "notes.json", true},
		{"nested", "docs/2026/plan.json", "docs/2026/plan.json", true},
		{"inner dots collapse", "docs/../docs/plan.json", "docs/plan.json", true},
		{"trailing slash", "docs/", "docs", true},
		{"empty", "", "", false},
		{"dot", ".", "", false},
		{"parent", "..", "", false},
		{"leading parent", "../users/alice", "", false},
		{"escaping chain", "docs/../../users/alice", "", false},
		{"absolute", "/etc/passwd", "", false},
		{"backslash parent", `..\users\alice`, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resource, ok := resourcePath(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, resource)
		})
	}
}

/*
TestRequiredLevel maps each method onto its access level.
*/
func TestRequiredLevel(t *testing.T) {
	assert.Equal(t, access.LevelRead, requiredLevel(http.MethodGet))
	assert.Equal(t, access.LevelRead, requiredLevel(http.MethodHead))
	assert.Equal(t, access.LevelWrite, requiredLevel(http.MethodPost))
	assert.Equal(t, access.LevelDelete, requiredLevel(http.MethodDelete))
}
