// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package portpick implements the deterministic port selection policy used
// when the configured port is already bound.
//
// # Specification forms
//
// A port specification is a slice of numbers interpreted by length:
//
//   - length 1: a fixed port, always selected.
//   - length 2: an inclusive [min, max] range.
//   - length >= 3: an explicit candidate list.
//
// Given the previously attempted port, [Pick] yields the next candidate or
// fails when the specification is exhausted. The error strings are part of
// the server's contract and must not change.
package portpick

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Spec is a port specification. See the package documentation for the
// length-based interpretation.
type Spec []int

// Parse converts a textual port specification into a [Spec].
//
// Accepted forms: a single number ("3000"), a range ("3000-3010"), or a
// comma-separated list of at least three numbers ("3000,3005,3010").
func Parse(text string) (Spec, error) {
	text = strings.TrimSpace(text)

	if minPart, maxPart, isRange := strings.Cut(text, "-"); isRange {
		minPort, err := parsePort(minPart)
		if err != nil {
			return nil, err
		}
		maxPort, err := parsePort(maxPart)
		if err != nil {
			return nil, err
		}
		if maxPort < minPort {
			return nil, fmt.Errorf("portpick: inverted range %d-%d", minPort, maxPort)
		}
		return Spec{minPort, maxPort}, nil
	}

	parts := strings.Split(text, ",")
	spec := make(Spec, 0, len(parts))
	for _, part := range parts {
		port, err := parsePort(part)
		if err != nil {
			return nil, err
		}
		spec = append(spec, port)
	}

	// A two-element comma list is ambiguous with a range; require >= 3.
	if len(spec) == 2 {
		return nil, fmt.Errorf("portpick: a port list needs at least 3 entries, got %d", len(spec))
	}
	return spec, nil
}

// Pick returns the next port to try after prev. Pass prev = 0 for the first
// attempt.
func (spec Spec) Pick(prev int) (int, error) {
	switch {
	case len(spec) == 1:
		// A fixed port is returned unconditionally; the caller decides
		// whether a repeated bind failure is fatal.
		return spec[0], nil

	case len(spec) == 2:
		minPort, maxPort := spec[0], spec[1]
		next := minPort
		if prev != 0 {
			next = max(prev, minPort) + 1
		}
		if next > maxPort {
			return 0, fmt.Errorf("Out of range [%d - %d]", minPort, maxPort)
		}
		return next, nil

	default:
		sorted := make([]int, len(spec))
		copy(sorted, spec)
		sort.Ints(sorted)
		for _, candidate := range sorted {
			if candidate > prev {
				return candidate, nil
			}
		}
		return 0, fmt.Errorf("Out of list %v", sorted)
	}
}

func parsePort(part string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(part))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("portpick: invalid port %q", part)
	}
	return port, nil
}
