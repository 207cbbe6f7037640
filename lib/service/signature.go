// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureHeader carries a delivery's HMAC-SHA256 over the raw body.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// Signature verification failures. The errors never include the
// expected digest.
var (
	ErrSignatureMissing   = errors.New("webhook signature missing")
	ErrSignatureMalformed = errors.New("webhook signature malformed")
	ErrSignatureMismatch  = errors.New("webhook signature mismatch")
)

// Sign returns the SignatureHeader value for body under key.
func Sign(key, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a SignatureHeader value against body. The
// "sha256=" prefix is required.
func VerifySignature(key, body []byte, header string) error {
	if header == "" {
		return ErrSignatureMissing
	}
	encoded, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return ErrSignatureMalformed
	}
	digest, err := hex.DecodeString(encoded)
	if err != nil || len(digest) != sha256.Size {
		return ErrSignatureMalformed
	}
	expected, _ := hex.DecodeString(strings.TrimPrefix(Sign(key, body), signaturePrefix))
	if !hmac.Equal(digest, expected) {
		return ErrSignatureMismatch
	}
	return nil
}
