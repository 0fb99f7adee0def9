// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package digest provides the short URL-safe digests used for opaque tokens,
// verification codes, and password hashes.
//
// # Format
//
// All digests are SHA-256 over the UTF-8 input, encoded with the standard
// base64 alphabet made URL-safe ('+' -> '-', '/' -> '_') and with trailing
// padding stripped. The output is stable across runs and never contains
// '+', '/', or '='.
package digest

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Short returns the URL-safe SHA-256 digest of the input string.
func Short(input string) string {
	sum := sha256.Sum256([]byte(input))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RandomToken generates an unguessable opaque token: 32 cryptographically
// random bytes, hex-encoded, then digested with [Short].
func RandomToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("digest: failed to read random bytes: %w", err)
	}
	return Short(hex.EncodeToString(raw)), nil
}

// NumericCode generates a cryptographically random numeric code of the given
// length, zero-padded. Used for email-style verification and reset codes.
func NumericCode(length int) (string, error) {
	var builder strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("digest: failed to generate numeric code: %w", err)
		}
		builder.WriteByte(byte('0' + n.Int64()))
	}
	return builder.String(), nil
}

// HashPassword hashes a plain-text password.
//
// The format is deliberately a bare [Short] digest so that stored hashes stay
// portable across integrators; a stronger KDF is an integrator concern.
func HashPassword(plainTextPassword string) string {
	return Short(plainTextPassword)
}

// CheckPassword compares a plain-text password with its stored hash.
func CheckPassword(plainTextPassword, existingHash string) bool {
	return Short(plainTextPassword) == existingHash
}
