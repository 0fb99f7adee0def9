// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package portpick_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/custos/pkg/portpick"
)

/*
TestParse covers the three accepted specification forms and the rejects.
*/
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    portpick.Spec
		wantErr bool
	}{
		{"single", "3000", portpick.Spec{3000}, false},
		{"range", "3000-3010", portpick.Spec{3000, 3010}, false},
		{"list", "3000,3005,3010", portpick.Spec{3000, 3005, 3010}, false},
		{"list_unsorted", "3010,3000,3005", portpick.Spec{3010, 3000, 3005}, false},
		{"spaces", " 3000 - 3010 ", portpick.Spec{3000, 3010}, false},
		{"two_element_list", "3000,3001", nil, true},
		{"inverted_range", "3010-3000", nil, true},
		{"garbage", "abc", nil, true},
		{"port_too_large", "70000", nil, true},
		{"zero", "0", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := portpick.Parse(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

/*
TestPick_Single checks that a fixed port is returned unconditionally.
*/
func TestPick_Single(t *testing.T) {
	spec := portpick.Spec{3000}

	for _, prev := range []int{0, 3000, 9999} {
		port, err := spec.Pick(prev)
		require.NoError(t, err)
		assert.Equal(t, 3000, port)
	}
}

/*
TestPick_Range walks a two-port range to exhaustion. The error text is part
of the startup contract.
*/
func TestPick_Range(t *testing.T) {
	spec := portpick.Spec{3000, 3001}

	port, err := spec.Pick(0)
	require.NoError(t, err)
	assert.Equal(t, 3000, port)

	port, err = spec.Pick(3000)
	require.NoError(t, err)
	assert.Equal(t, 3001, port)

	_, err = spec.Pick(3001)
	require.Error(t, err)
	assert.Equal(t, "Out of range [3000 - 3001]", err.Error())
}

/*
TestPick_Range_PrevBelowMin clamps the predecessor to the range minimum.
*/
func TestPick_Range_PrevBelowMin(t *testing.T) {
	spec := portpick.Spec{3000, 3010}

	port, err := spec.Pick(100)
	require.NoError(t, err)
	assert.Equal(t, 3001, port)
}

/*
TestPick_List returns the smallest candidate strictly greater than prev,
regardless of declaration order.
*/
func TestPick_List(t *testing.T) {
	spec := portpick.Spec{3010, 3000, 3005}

	port, err := spec.Pick(0)
	require.NoError(t, err)
	assert.Equal(t, 3000, port)

	port, err = spec.Pick(3000)
	require.NoError(t, err)
	assert.Equal(t, 3005, port)

	port, err = spec.Pick(3005)
	require.NoError(t, err)
	assert.Equal(t, 3010, port)

	_, err = spec.Pick(3010)
	require.Error(t, err)
	assert.Equal(t, "Out of list [3000 3005 3010]", err.Error())
}
